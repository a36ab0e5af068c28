package crawl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/filter"
	"github.com/koba/dbcrawl/internal/graph"
	"github.com/koba/dbcrawl/internal/infolevel"
	"github.com/koba/dbcrawl/internal/schema"
)

// fakeSource serves canned rows keyed by table name
type fakeSource struct {
	info       database.Row
	schemas    database.Rows
	tables     database.Rows
	columns    map[string]database.Rows
	pks        map[string]database.Rows
	indexes    map[string]database.Rows
	imported   map[string]database.Rows
	exported   map[string]database.Rows
	procedures database.Rows
	procCols   map[string]database.Rows
	auxiliary  map[database.AuxiliaryQuery]database.Rows

	errs  map[string]error
	calls map[string][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		info: database.Row{
			"PRODUCT_NAME":    "FakeDB",
			"PRODUCT_VERSION": "1.0",
			"USER_NAME":       "app",
			"DRIVER_NAME":     "fake",
			"DRIVER_VERSION":  "0.1",
		},
		schemas:   database.Rows{{"TABLE_CATALOG": "shop", "TABLE_SCHEM": "public"}},
		columns:   map[string]database.Rows{},
		pks:       map[string]database.Rows{},
		indexes:   map[string]database.Rows{},
		imported:  map[string]database.Rows{},
		exported:  map[string]database.Rows{},
		procCols:  map[string]database.Rows{},
		auxiliary: map[database.AuxiliaryQuery]database.Rows{},
		errs:      map[string]error{},
		calls:     map[string][]string{},
	}
}

func (f *fakeSource) record(call, object string) error {
	f.calls[call] = append(f.calls[call], object)
	return f.errs[call]
}

func (f *fakeSource) Connect() error { return nil }
func (f *fakeSource) Close() error   { return nil }

func (f *fakeSource) DatabaseInfo() (database.Row, error) {
	return f.info, f.record("DatabaseInfo", "")
}

func (f *fakeSource) AdditionalDatabaseInfo() (database.Rows, error) {
	return database.Rows{{"NAME": "max_connections", "VALUE": "100"}}, f.record("AdditionalDatabaseInfo", "")
}

func (f *fakeSource) ListCatalogs() (database.Rows, error) {
	return database.Rows{{"TABLE_CAT": "shop"}}, f.record("ListCatalogs", "")
}

func (f *fakeSource) ListSchemas() (database.Rows, error) {
	return f.schemas, f.record("ListSchemas", "")
}

func (f *fakeSource) ListColumnDataTypes() (database.Rows, error) {
	return database.Rows{
		{"TYPE_NAME": "integer", "DATA_TYPE": schema.TypeInteger, "AUTO_INCREMENT": true},
		{"TYPE_NAME": "varchar", "DATA_TYPE": schema.TypeVarchar, "PRECISION": 10485760},
	}, f.record("ListColumnDataTypes", "")
}

func (f *fakeSource) ListUserDefinedTypes(s database.SchemaRef) (database.Rows, error) {
	return nil, f.record("ListUserDefinedTypes", s.Schema)
}

func (f *fakeSource) ListTables(s database.SchemaRef, pattern string, types []string) (database.Rows, error) {
	return f.tables, f.record("ListTables", s.Schema)
}

func (f *fakeSource) ListColumns(t database.TableRef) (database.Rows, error) {
	return f.columns[t.Table], f.record("ListColumns", t.Table)
}

func (f *fakeSource) ListPrimaryKey(t database.TableRef) (database.Rows, error) {
	return f.pks[t.Table], f.record("ListPrimaryKey", t.Table)
}

func (f *fakeSource) ListImportedKeys(t database.TableRef) (database.Rows, error) {
	return f.imported[t.Table], f.record("ListImportedKeys", t.Table)
}

func (f *fakeSource) ListExportedKeys(t database.TableRef) (database.Rows, error) {
	return f.exported[t.Table], f.record("ListExportedKeys", t.Table)
}

func (f *fakeSource) ListIndexes(t database.TableRef) (database.Rows, error) {
	return f.indexes[t.Table], f.record("ListIndexes", t.Table)
}

func (f *fakeSource) ListProcedures(s database.SchemaRef) (database.Rows, error) {
	return f.procedures, f.record("ListProcedures", s.Schema)
}

func (f *fakeSource) ListProcedureColumns(p database.ProcedureRef) (database.Rows, error) {
	return f.procCols[p.Procedure], f.record("ListProcedureColumns", p.Procedure)
}

func (f *fakeSource) Auxiliary(q database.AuxiliaryQuery) (database.Rows, error) {
	if err := f.record("Auxiliary", string(q)); err != nil {
		return nil, err
	}
	rows, ok := f.auxiliary[q]
	if !ok {
		return nil, database.ErrUnsupported
	}
	return rows, nil
}

func column(name, typeName string, ordinal int) database.Row {
	code := database.TypeCode(typeName)
	return database.Row{
		"COLUMN_NAME":      name,
		"TYPE_NAME":        typeName,
		"DATA_TYPE":        code,
		"ORDINAL_POSITION": ordinal,
		"IS_NULLABLE":      "YES",
	}
}

func pkRow(table, name string) database.Row {
	return database.Row{"COLUMN_NAME": "id", "KEY_SEQ": 1, "PK_NAME": name}
}

func fkRow(name, fkTable, fkColumn, pkTable string, seq int) database.Row {
	return database.Row{
		"FK_NAME":       name,
		"PKTABLE_CAT":   "shop",
		"PKTABLE_SCHEM": "public",
		"PKTABLE_NAME":  pkTable,
		"PKCOLUMN_NAME": "id",
		"FKTABLE_CAT":   "shop",
		"FKTABLE_SCHEM": "public",
		"FKTABLE_NAME":  fkTable,
		"FKCOLUMN_NAME": fkColumn,
		"KEY_SEQ":       seq,
		"UPDATE_RULE":   "NO ACTION",
		"DELETE_RULE":   "CASCADE",
	}
}

// shopSource has customers <- orders <- order_lines, and order_lines
// pointing at products without a declared key.
func shopSource() *fakeSource {
	f := newFakeSource()
	f.tables = database.Rows{
		{"TABLE_NAME": "order_lines", "TABLE_TYPE": "TABLE"},
		{"TABLE_NAME": "orders", "TABLE_TYPE": "TABLE", "REMARKS": "customer orders"},
		{"TABLE_NAME": "customers", "TABLE_TYPE": "TABLE"},
		{"TABLE_NAME": "products", "TABLE_TYPE": "TABLE"},
		{"TABLE_NAME": "v_orders", "TABLE_TYPE": "VIEW"},
	}
	f.columns["customers"] = database.Rows{column("id", "integer", 1), column("name", "varchar", 2)}
	f.columns["orders"] = database.Rows{column("id", "integer", 1), column("customer_id", "integer", 2), column("total", "numeric", 3)}
	f.columns["order_lines"] = database.Rows{column("id", "integer", 1), column("order_id", "integer", 2), column("product_id", "integer", 3)}
	f.columns["products"] = database.Rows{column("id", "integer", 1), column("sku", "varchar", 2)}
	f.columns["v_orders"] = database.Rows{column("id", "integer", 1)}

	for _, table := range []string{"customers", "orders", "order_lines", "products"} {
		f.pks[table] = database.Rows{pkRow(table, table+"_pkey")}
		f.indexes[table] = database.Rows{
			{"INDEX_NAME": "", "TYPE": "statistic", "CARDINALITY": 10},
			{"INDEX_NAME": table + "_pkey", "NON_UNIQUE": false, "COLUMN_NAME": "id", "ORDINAL_POSITION": 1, "ASC_OR_DESC": "A"},
		}
	}
	f.indexes["orders"] = append(f.indexes["orders"], database.Row{
		"INDEX_NAME": "orders_customer_idx", "NON_UNIQUE": true, "COLUMN_NAME": "customer_id", "ORDINAL_POSITION": 1, "ASC_OR_DESC": "D",
	})

	ordersCustomer := fkRow("orders_customer_fk", "orders", "customer_id", "customers", 1)
	linesOrder := fkRow("order_lines_order_fk", "order_lines", "order_id", "orders", 1)
	f.imported["orders"] = database.Rows{ordersCustomer}
	f.imported["order_lines"] = database.Rows{linesOrder}
	f.exported["customers"] = database.Rows{ordersCustomer}
	f.exported["orders"] = database.Rows{linesOrder}

	f.auxiliary[database.ViewDefinitions] = database.Rows{
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "v_orders", "VIEW_DEFINITION": "SELECT id "},
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "v_orders", "VIEW_DEFINITION": "FROM orders"},
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "other", "TABLE_NAME": "v_elsewhere", "VIEW_DEFINITION": "SELECT 1"},
	}
	f.auxiliary[database.Triggers] = database.Rows{
		{"EVENT_OBJECT_CATALOG": "shop", "EVENT_OBJECT_SCHEMA": "public", "EVENT_OBJECT_TABLE": "orders", "TRIGGER_NAME": "orders_audit", "EVENT_MANIPULATION": "INSERT", "ACTION_TIMING": "AFTER"},
		{"EVENT_OBJECT_CATALOG": "shop", "EVENT_OBJECT_SCHEMA": "public", "EVENT_OBJECT_TABLE": "orders", "TRIGGER_NAME": "orders_audit", "EVENT_MANIPULATION": "UPDATE", "ACTION_TIMING": "AFTER"},
	}
	f.auxiliary[database.CheckConstraints] = database.Rows{
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "orders", "CONSTRAINT_NAME": "orders_total_check", "CHECK_CLAUSE": "total >= 0"},
	}
	f.auxiliary[database.TablePrivileges] = database.Rows{
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "orders", "PRIVILEGE_TYPE": "SELECT", "GRANTOR": "app", "GRANTEE": "report", "IS_GRANTABLE": "NO"},
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "orders", "PRIVILEGE_TYPE": "SELECT", "GRANTOR": "app", "GRANTEE": "audit", "IS_GRANTABLE": "YES"},
	}
	f.auxiliary[database.ColumnPrivileges] = database.Rows{
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "orders", "COLUMN_NAME": "missing", "PRIVILEGE_TYPE": "UPDATE"},
	}
	f.auxiliary[database.AdditionalTableAttributes] = database.Rows{
		{"TABLE_CATALOG": "shop", "TABLE_SCHEMA": "public", "TABLE_NAME": "orders", "ROW_ESTIMATE": int64(42)},
	}

	f.procedures = database.Rows{{"PROCEDURE_NAME": "place_order", "PROCEDURE_TYPE": "function", "SPECIFIC_NAME": "place_order_1"}}
	f.procCols["place_order"] = database.Rows{
		{"COLUMN_NAME": "customer", "COLUMN_TYPE": "in", "TYPE_NAME": "integer", "DATA_TYPE": schema.TypeInteger, "ORDINAL_POSITION": 1},
		{"COLUMN_NAME": "result", "COLUMN_TYPE": "return", "TYPE_NAME": "uuid", "ORDINAL_POSITION": 0},
	}
	f.auxiliary[database.ProcedureDefinitions] = database.Rows{
		{"ROUTINE_CATALOG": "shop", "ROUTINE_SCHEMA": "public", "ROUTINE_NAME": "place_order", "SPECIFIC_NAME": "place_order_1", "ROUTINE_DEFINITION": "BEGIN END"},
	}
	return f
}

func crawl(t *testing.T, source database.Source, opts ...Option) *Result {
	t.Helper()
	result, err := New(source, opts...).Crawl()
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func lookupTable(t *testing.T, db *schema.Database, name string) *schema.Table {
	t.Helper()
	table, ok := db.LookupTable("shop.public." + name)
	require.True(t, ok, name)
	return table
}

func tableNames(tables []*schema.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	return names
}

func TestCrawlBuildsGraph(t *testing.T) {
	result := crawl(t, shopSource(), WithInfoLevel(infolevel.Maximum()))
	db := result.Database

	assert.Equal(t, "FakeDB", db.DatabaseInfo.ProductName)
	assert.Equal(t, "fake", db.DriverInfo.DriverName)
	value, ok := db.DatabaseInfo.Properties.Get("max_connections")
	require.True(t, ok)
	assert.Equal(t, "100", value)

	orders := lookupTable(t, db, "orders")
	assert.Equal(t, "customer orders", orders.Remarks)
	require.Len(t, orders.Columns(schema.Natural), 3)
	assert.Equal(t, schema.TypeInteger, orders.Columns(schema.Natural)[1].DataType.SQLType.Code)

	pk := orders.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, "orders_pkey", pk.Name())
	assert.True(t, pk.Unique)

	// the index backing the primary key is folded into it
	indexes := orders.Indexes(schema.Natural)
	require.Len(t, indexes, 1)
	assert.Equal(t, "orders_customer_idx", indexes[0].Name())
	assert.False(t, indexes[0].Unique)
	assert.False(t, indexes[0].Columns()[0].Ascending)

	imported := orders.ImportedForeignKeys(schema.Natural)
	require.Len(t, imported, 1)
	assert.Equal(t, "CASCADE", imported[0].DeleteRule)
	assert.Equal(t, "customers", imported[0].PrimaryKeyTable().Name())

	customers := lookupTable(t, db, "customers")
	exported := customers.ExportedForeignKeys(schema.Natural)
	require.Len(t, exported, 1)
	assert.Same(t, imported[0], exported[0])

	customerID, _ := orders.LookupColumn("customer_id")
	require.NotNil(t, customerID.ReferencedColumn)
	assert.Equal(t, "shop.public.customers.id", customerID.ReferencedColumn.FullName())

	triggers := orders.Triggers(schema.Natural)
	require.Len(t, triggers, 1)
	assert.Equal(t, "INSERT, UPDATE", triggers[0].EventManipulation)

	checks := orders.CheckConstraints(schema.Natural)
	require.Len(t, checks, 1)
	assert.Equal(t, "total >= 0", checks[0].Definition())

	privileges := orders.Privileges(schema.Natural)
	require.Len(t, privileges, 1)
	assert.Len(t, privileges[0].Grants(), 2)

	estimate, ok := orders.Attributes.Get("row_estimate")
	require.True(t, ok)
	assert.Equal(t, int64(42), estimate)

	view := lookupTable(t, db, "v_orders")
	assert.True(t, view.IsView())
	assert.Equal(t, "SELECT id FROM orders", view.Definition())

	procedures := db.Procedures(schema.Natural)
	require.Len(t, procedures, 1)
	assert.Equal(t, "function", procedures[0].ProcedureType)
	assert.Equal(t, "BEGIN END", procedures[0].Definition())
	params := procedures[0].Columns(schema.Natural)
	require.Len(t, params, 2)
	assert.Equal(t, "result", params[0].Name())
	assert.Equal(t, "uuid", params[0].DataType.Name())

	weak := db.WeakAssociations()
	require.Len(t, weak, 1)
	assert.Equal(t, "shop.public.order_lines.product_id", weak[0].ForeignKeyColumn.FullName())
	assert.Equal(t, "shop.public.products.id", weak[0].PrimaryKeyColumn.FullName())

	// the column privilege names a missing column
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, UnresolvedReference, result.Warnings[0].Kind)
	assert.Equal(t, "column privileges", result.Warnings[0].Phase)
}

func TestCrawlSortsTablesByDependency(t *testing.T) {
	result := crawl(t, shopSource())

	tables := result.Database.Tables(schema.Natural)
	assert.Equal(t, []string{"customers", "products", "v_orders", "orders", "order_lines"}, tableNames(tables))
	assert.Equal(t, 0, tables[0].SortIndex())
	assert.Equal(t, 4, tables[4].SortIndex())
}

func TestCrawlSkipsKeysForViews(t *testing.T) {
	source := shopSource()
	crawl(t, source)

	assert.NotContains(t, source.calls["ListPrimaryKey"], "v_orders")
	assert.NotContains(t, source.calls["ListIndexes"], "v_orders")
	assert.NotContains(t, source.calls["ListImportedKeys"], "v_orders")
	assert.Contains(t, source.calls["ListColumns"], "v_orders")
}

func TestCrawlHonorsInfoLevel(t *testing.T) {
	source := shopSource()
	result := crawl(t, source, WithInfoLevel(infolevel.Minimum()))

	orders := lookupTable(t, result.Database, "orders")
	assert.Empty(t, orders.Columns(schema.Natural))
	assert.Nil(t, orders.PrimaryKey())
	assert.Empty(t, source.calls["ListColumns"])
	assert.Empty(t, source.calls["Auxiliary"])
	assert.Empty(t, result.Database.WeakAssociations())
	assert.Len(t, result.Database.Procedures(schema.Natural), 1)
}

func TestCrawlCustomInfoLevel(t *testing.T) {
	level := infolevel.Custom(infolevel.Basic())
	require.NoError(t, level.Set(infolevel.RetrieveWeakAssociations, true))

	result := crawl(t, shopSource(), WithInfoLevel(level))

	// without declared keys every reference is a weak association
	assert.Len(t, result.Database.WeakAssociations(), 3)
}

func TestCrawlAppliesRules(t *testing.T) {
	source := shopSource()
	result := crawl(t, source,
		WithTableRule(filter.MustRule("", `.*\.v_.*`)),
		WithColumnRule(filter.MustRule("", `.*\.total`)),
	)

	_, ok := result.Database.LookupTable("shop.public.v_orders")
	assert.False(t, ok)
	orders := lookupTable(t, result.Database, "orders")
	_, ok = orders.LookupColumn("total")
	assert.False(t, ok)
	assert.NotContains(t, source.calls["ListColumns"], "v_orders")
}

func TestCrawlExcludedSchema(t *testing.T) {
	source := shopSource()
	result := crawl(t, source, WithSchemaRule(filter.MustRule("", "shop.public")))

	assert.Empty(t, result.Database.Schemas(schema.Natural))
	assert.Empty(t, source.calls["ListTables"])
}

func TestCrawlUnresolvedForeignKey(t *testing.T) {
	source := shopSource()
	result := crawl(t, source, WithTableRule(filter.MustRule("", `.*\.customers`)))

	orders := lookupTable(t, result.Database, "orders")
	assert.Empty(t, orders.ImportedForeignKeys(schema.Natural))

	var unresolved []Warning
	for _, w := range result.Warnings {
		if w.Kind == UnresolvedReference {
			unresolved = append(unresolved, w)
		}
	}
	require.Len(t, unresolved, 1)
	assert.Equal(t, "foreign keys", unresolved[0].Phase)
	assert.Equal(t, "orders_customer_fk", unresolved[0].Object)
}

func unresolvedWarnings(result *Result, phase string) []Warning {
	var unresolved []Warning
	for _, w := range result.Warnings {
		if w.Kind == UnresolvedReference && w.Phase == phase {
			unresolved = append(unresolved, w)
		}
	}
	return unresolved
}

func TestCrawlReportsUnresolvedKeyRowOnce(t *testing.T) {
	// customers.id is filtered out, so the key fails from both of its ends
	source := shopSource()
	result := crawl(t, source, WithColumnRule(filter.MustRule("", `.*\.customers\.id`)))

	assert.Contains(t, source.calls["ListExportedKeys"], "customers")
	orders := lookupTable(t, result.Database, "orders")
	assert.Empty(t, orders.ImportedForeignKeys(schema.Natural))

	unresolved := unresolvedWarnings(result, "foreign keys")
	require.Len(t, unresolved, 1)
	assert.Equal(t, "orders_customer_fk", unresolved[0].Object)
}

func TestCrawlKeepsResolvedForeignKeyColumns(t *testing.T) {
	source := shopSource()
	source.columns["customers"] = append(source.columns["customers"], column("region", "varchar", 3))
	source.columns["orders"] = append(source.columns["orders"], column("region", "varchar", 4))
	byCustomer := fkRow("orders_customer_fk", "orders", "customer_id", "customers", 1)
	byRegion := fkRow("orders_customer_fk", "orders", "region", "customers", 2)
	byRegion["PKCOLUMN_NAME"] = "region"
	source.imported["orders"] = database.Rows{byCustomer, byRegion}
	source.exported["customers"] = database.Rows{byCustomer, byRegion}

	result := crawl(t, source,
		WithInfoLevel(infolevel.Maximum()),
		WithColumnRule(filter.MustRule("", `.*\.orders\.region`)),
	)

	orders := lookupTable(t, result.Database, "orders")
	imported := orders.ImportedForeignKeys(schema.Natural)
	require.Len(t, imported, 1)
	assert.Equal(t, "orders_customer_fk", imported[0].Name())
	refs := imported[0].ColumnReferences()
	require.Len(t, refs, 1)
	assert.Equal(t, "customer_id", refs[0].ForeignKeyColumn.Name())
	assert.Equal(t, "shop.public.customers.id", refs[0].PrimaryKeyColumn.FullName())

	customerID, _ := orders.LookupColumn("customer_id")
	assert.True(t, customerID.IsPartOfForeignKey())

	// the declared key is not reported again as a weak association
	for _, weak := range result.Database.WeakAssociations() {
		assert.NotEqual(t, "shop.public.orders.customer_id", weak.ForeignKeyColumn.FullName())
	}

	unresolved := unresolvedWarnings(result, "foreign keys")
	require.Len(t, unresolved, 1)
	assert.Equal(t, "orders_customer_fk", unresolved[0].Object)
}

func TestCrawlTableListedTwice(t *testing.T) {
	source := shopSource()
	source.tables = append(source.tables, database.Row{"TABLE_NAME": "orders", "TABLE_TYPE": "TABLE", "REMARKS": "listed again"})

	result := crawl(t, source)

	tables := result.Database.Tables(schema.Natural)
	assert.Len(t, tables, 5)
	orders := lookupTable(t, result.Database, "orders")
	assert.Equal(t, "listed again", orders.Remarks)
	assert.Len(t, orders.Columns(schema.Natural), 3)
	assert.NotNil(t, orders.PrimaryKey())
	assert.Len(t, orders.ImportedForeignKeys(schema.Natural), 1)

	var listed int
	for _, name := range source.calls["ListColumns"] {
		if name == "orders" {
			listed++
		}
	}
	assert.Equal(t, 1, listed)
}

func TestCrawlGrepColumns(t *testing.T) {
	grep := WithGrepColumns(filter.MustRule(`.*\.customer_id`, ""))
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{"matching tables only", nil, []string{"orders"}},
		{"with parents", []Option{WithParentTableDepth(1)}, []string{"customers", "orders"}},
		{"with children", []Option{WithChildTableDepth(1)}, []string{"order_lines", "orders"}},
		{"with both", []Option{WithParentTableDepth(2), WithChildTableDepth(2)}, []string{"customers", "order_lines", "orders"}},
		{"inverted", []Option{WithGrepInvert(true)}, []string{"customers", "order_lines", "products", "v_orders"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := crawl(t, shopSource(), append([]Option{grep}, tt.opts...)...)
			assert.Equal(t, tt.want, tableNames(result.Database.Tables(schema.Alphabetical)))
		})
	}
}

func TestCrawlGrepRenumbersTables(t *testing.T) {
	result := crawl(t, shopSource(),
		WithGrepColumns(filter.MustRule(`.*\.order_id`, "")),
		WithParentTableDepth(1),
	)

	tables := result.Database.Tables(schema.Natural)
	assert.Equal(t, []string{"orders", "order_lines"}, tableNames(tables))
	assert.Equal(t, 0, tables[0].SortIndex())
	assert.Equal(t, 1, tables[1].SortIndex())

	_, ok := result.Database.LookupTable("shop.public.customers")
	assert.False(t, ok)
}

func TestCrawlGrepDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"view definition", `.*FROM orders`, []string{"v_orders"}},
		{"table remarks", `customer .*`, []string{"orders"}},
		{"trigger body", `.*audit_log.*`, []string{"orders"}},
		{"no match", `nothing`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := shopSource()
			source.auxiliary[database.Triggers][0]["ACTION_STATEMENT"] = "INSERT INTO audit_log VALUES (NEW.id)"

			result := crawl(t, source, WithGrepDefinitions(filter.MustRule(tt.pattern, "")))
			assert.Equal(t, tt.want, tableNames(result.Database.Tables(schema.Alphabetical)))
		})
	}
}

func TestCrawlNamesAnonymousForeignKeys(t *testing.T) {
	source := shopSource()
	byCustomer := fkRow("", "orders", "customer_id", "customers", 1)
	byLine := fkRow("", "orders", "id", "order_lines", 1)
	source.imported["orders"] = database.Rows{byCustomer, byLine}
	source.exported["customers"] = database.Rows{byCustomer}
	source.imported["order_lines"] = nil
	source.exported["orders"] = nil

	result := crawl(t, source)

	orders := lookupTable(t, result.Database, "orders")
	names := []string{}
	for _, fk := range orders.ImportedForeignKeys(schema.Alphabetical) {
		names = append(names, fk.Name())
	}
	assert.Equal(t, []string{"orders_customer_id_fkey", "orders_id_fkey"}, names)

	customers := lookupTable(t, result.Database, "customers")
	assert.Len(t, customers.ForeignKeys(schema.Natural), 1)
}

func TestGroupForeignKeyRows(t *testing.T) {
	rows := database.Rows{
		fkRow("", "a", "x1", "b", 1),
		fkRow("", "a", "x2", "b", 2),
		fkRow("", "a", "y", "b", 1),
		fkRow("", "a", "z", "c", 2),
		fkRow("named", "a", "n1", "c", 1),
		fkRow("other", "a", "o", "c", 1),
		fkRow("named", "a", "n2", "c", 2),
	}

	groups := groupForeignKeyRows(rows)
	require.Len(t, groups, 5)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
	assert.Len(t, groups[2], 1)
	assert.Len(t, groups[3], 2)
	assert.Len(t, groups[4], 1)
}

func TestCrawlCycleKeepsNameOrder(t *testing.T) {
	source := shopSource()
	source.imported["customers"] = database.Rows{fkRow("customers_last_order_fk", "customers", "id", "order_lines", 1)}

	result := crawl(t, source)

	for _, table := range result.Database.Tables(schema.Natural) {
		assert.Equal(t, 0, table.SortIndex())
	}
	assert.Equal(t,
		[]string{"customers", "order_lines", "orders", "products", "v_orders"},
		tableNames(result.Database.Tables(schema.Natural)))

	var cycles int
	for _, w := range result.Warnings {
		if errors.Is(w.Err, graph.ErrCycle) {
			cycles++
			assert.Equal(t, DegradedRetrieval, w.Kind)
		}
	}
	assert.Equal(t, 1, cycles)
}

func TestCrawlRequiredPhaseFails(t *testing.T) {
	source := shopSource()
	boom := errors.New("connection reset")
	source.errs["ListColumns"] = boom

	result, err := New(source).Crawl()
	assert.Nil(t, result)

	var crawlErr *CrawlError
	require.ErrorAs(t, err, &crawlErr)
	assert.Equal(t, "columns", crawlErr.Phase)
	assert.ErrorIs(t, err, boom)
}

func TestCrawlOptionalPhaseDegrades(t *testing.T) {
	source := shopSource()
	source.errs["Auxiliary"] = errors.New("permission denied")

	result := crawl(t, source)

	phases := map[string]bool{}
	for _, w := range result.Warnings {
		assert.Equal(t, DegradedRetrieval, w.Kind)
		phases[w.Phase] = true
	}
	assert.True(t, phases["triggers"])
	assert.True(t, phases["view definitions"])
	assert.True(t, phases["check constraints"])

	orders := lookupTable(t, result.Database, "orders")
	assert.Len(t, orders.Columns(schema.Natural), 3)
}

func TestCrawlUnsupportedQueryIsSilent(t *testing.T) {
	source := shopSource()
	source.auxiliary = map[database.AuxiliaryQuery]database.Rows{}

	result := crawl(t, source)
	assert.Empty(t, result.Warnings)
}

func TestCrawlErrorMessage(t *testing.T) {
	err := &CrawlError{Phase: "schemas", Err: errors.New("timeout")}
	assert.Equal(t, "crawl failed in schemas: timeout", err.Error())

	w := Warning{Kind: UnresolvedReference, Phase: "indexes", Object: "t.idx", Err: errors.New("gone")}
	assert.Equal(t, "unresolved reference in indexes for t.idx: gone", w.String())
}
