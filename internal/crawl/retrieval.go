package crawl

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/infolevel"
	"github.com/koba/dbcrawl/internal/schema"
)

// retrieval is the state of one crawl
type retrieval struct {
	source database.Source
	opts   *options
	logger *zap.Logger

	db      *schema.Database
	schemas map[database.SchemaRef]*schema.Schema
	// tables holds the crawled tables in the order they were listed.
	tables      []*schema.Table
	foreignKeys map[string]*schema.ForeignKey

	// unresolvedKeyRows holds the key rows already reported
	unresolvedKeyRows map[string]bool

	phase    string
	warnings []Warning
}

func newRetrieval(source database.Source, opts *options) *retrieval {
	return &retrieval{
		source:      source,
		opts:        opts,
		logger:      opts.logger,
		db:          schema.NewDatabase(),
		schemas:     make(map[database.SchemaRef]*schema.Schema),
		foreignKeys: make(map[string]*schema.ForeignKey),

		unresolvedKeyRows: make(map[string]bool),
	}
}

// degraded records a failed optional retrieval. Retrievals the engine does
// not support are only logged.
func (r *retrieval) degraded(object string, err error) {
	if errors.Is(err, database.ErrUnsupported) {
		r.logger.Debug("not supported", zap.String("phase", r.phase), zap.String("object", object), zap.Error(err))
		return
	}
	r.warn(DegradedRetrieval, object, err)
}

func (r *retrieval) unresolved(object string, format string, args ...any) {
	r.warn(UnresolvedReference, object, fmt.Errorf(format, args...))
}

func (r *retrieval) warn(kind WarningKind, object string, err error) {
	w := Warning{Kind: kind, Phase: r.phase, Object: object, Err: err}
	r.warnings = append(r.warnings, w)
	r.logger.Warn("skipped during crawl",
		zap.String("kind", kind.String()),
		zap.String("phase", r.phase),
		zap.String("object", object),
		zap.Error(err),
	)
}

// lookupSchema finds a crawled schema through the cache
func (r *retrieval) lookupSchema(catalog, name string) (*schema.Schema, bool) {
	s, ok := r.schemas[database.SchemaRef{Catalog: catalog, Schema: name}]
	return s, ok
}

// lookupTable finds a crawled table by its name parts
func (r *retrieval) lookupTable(catalog, schemaName, table string) (*schema.Table, bool) {
	s, ok := r.lookupSchema(catalog, schemaName)
	if !ok {
		return nil, false
	}
	return s.LookupTable(table)
}

// lookupAuxiliaryTable finds the table an auxiliary row describes
func (r *retrieval) lookupAuxiliaryTable(row database.Row, prefix string) (*schema.Table, bool) {
	return r.lookupTable(
		row.String(prefix+"_CATALOG", ""),
		row.String(prefix+"_SCHEMA", ""),
		row.String(prefix+"_NAME", row.String(prefix+"_TABLE", "")),
	)
}

// dataType resolves a type name in the schema, then among the system types.
// Unknown names are registered as new system types.
func (r *retrieval) dataType(s *schema.Schema, typeName string, code int) *schema.ColumnDataType {
	sqlType := schema.LookupSQLType(code)
	if strings.TrimSpace(typeName) == "" {
		typeName = sqlType.Name
	}
	if dataType, ok := r.db.LookupColumnDataType(s, typeName); ok {
		return dataType
	}
	dataType := schema.NewColumnDataType(nil, typeName, sqlType)
	dataType.Nullable = true
	r.db.AddColumnDataType(dataType)
	return dataType
}

func schemaRef(s *schema.Schema) database.SchemaRef {
	return database.SchemaRef{Catalog: s.Catalog().Name(), Schema: s.Name()}
}

func tableRef(t *schema.Table) database.TableRef {
	s := t.Schema()
	return database.TableRef{Catalog: s.Catalog().Name(), Schema: s.Name(), Table: t.Name()}
}

func (r *retrieval) retrieveDatabaseInfo() error {
	row, err := r.source.DatabaseInfo()
	if err != nil {
		return err
	}

	level := r.opts.level
	if level.Is(infolevel.RetrieveDatabaseInfo) {
		r.db.DatabaseInfo.ProductName = row.String("PRODUCT_NAME", "")
		r.db.DatabaseInfo.ProductVersion = row.String("PRODUCT_VERSION", "")
		r.db.DatabaseInfo.UserName = row.String("USER_NAME", "")
	}
	if level.Is(infolevel.RetrieveDriverInfo) {
		r.db.DriverInfo.DriverName = row.String("DRIVER_NAME", "")
		r.db.DriverInfo.DriverVersion = row.String("DRIVER_VERSION", "")
	}
	if level.Is(infolevel.RetrieveAdditionalDriverInfo) {
		for _, key := range slices.Sorted(maps.Keys(row)) {
			if !standardInfoColumns[key] && row[key] != nil {
				r.db.DriverInfo.Properties.Set(strings.ToLower(key), row[key])
			}
		}
	}
	return nil
}

var standardInfoColumns = map[string]bool{
	"PRODUCT_NAME":    true,
	"PRODUCT_VERSION": true,
	"USER_NAME":       true,
	"DRIVER_NAME":     true,
	"DRIVER_VERSION":  true,
}

func (r *retrieval) retrieveAdditionalDatabaseInfo() error {
	rows, err := r.source.AdditionalDatabaseInfo()
	if err != nil {
		return err
	}
	for _, row := range rows {
		name := row.String("NAME", "")
		if name == "" {
			continue
		}
		r.db.DatabaseInfo.Properties.Set(name, row.String("VALUE", ""))
	}
	return nil
}

func (r *retrieval) retrieveSchemas() error {
	catalogs, err := r.source.ListCatalogs()
	if err != nil {
		return err
	}
	for _, row := range catalogs {
		r.catalog(row.String("TABLE_CAT", ""))
	}

	rows, err := r.source.ListSchemas()
	if err != nil {
		return err
	}
	for _, row := range rows {
		catalog := r.catalog(row.String("TABLE_CATALOG", ""))
		s := schema.NewSchema(catalog, row.String("TABLE_SCHEM", ""))
		if !r.opts.schemaRule.Test(s.FullName()) {
			r.logger.Debug("excluded schema", zap.String("schema", s.FullName()))
			continue
		}
		catalog.AddSchema(s)
		r.schemas[schemaRef(s)] = s
	}
	return nil
}

func (r *retrieval) catalog(name string) *schema.Catalog {
	if c, ok := r.db.LookupCatalog(name); ok {
		return c
	}
	c := schema.NewCatalog(name)
	r.db.AddCatalog(c)
	return c
}

func (r *retrieval) crawledSchemas() []*schema.Schema {
	return r.db.Schemas(schema.Natural)
}

func (r *retrieval) retrieveColumnDataTypes() error {
	rows, err := r.source.ListColumnDataTypes()
	if err != nil {
		return err
	}
	for _, row := range rows {
		name := row.String("TYPE_NAME", "")
		if name == "" {
			continue
		}
		dataType := schema.NewColumnDataType(nil, name, schema.LookupSQLType(row.Int("DATA_TYPE", schema.TypeOther)))
		dataType.Precision = row.Int("PRECISION", 0)
		dataType.Nullable = row.Bool("NULLABLE", true)
		dataType.AutoIncrementable = row.Bool("AUTO_INCREMENT", false)
		dataType.CreateParameters = row.String("CREATE_PARAMS", "")
		r.db.AddColumnDataType(dataType)
	}
	return nil
}

func (r *retrieval) retrieveUserDefinedColumnDataTypes() error {
	for _, s := range r.crawledSchemas() {
		rows, err := r.source.ListUserDefinedTypes(schemaRef(s))
		if err != nil {
			r.degraded(s.FullName(), err)
			continue
		}
		for _, row := range rows {
			name := row.String("TYPE_NAME", "")
			if name == "" {
				continue
			}
			dataType := schema.NewColumnDataType(s, name, schema.LookupSQLType(row.Int("DATA_TYPE", schema.TypeOther)))
			dataType.UserDefined = true
			dataType.Nullable = true
			dataType.Remarks = row.String("REMARKS", "")
			if base := row.String("BASE_TYPE", ""); base != "" {
				dataType.BaseType = r.dataType(s, base, database.TypeCode(base))
			}
			s.AddColumnDataType(dataType)
		}
	}
	return nil
}
