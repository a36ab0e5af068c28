// Package database reads structural metadata from a live database.
//
// Every engine answers the same set of listing calls with tabular rows keyed
// by upper cased, JDBC style column names such as TABLE_NAME or KEY_SEQ.
// Callers read those rows through the defaulting getters of Row, so an
// engine that cannot provide a column simply leaves it out.
package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for a retrieval an engine cannot perform.
var ErrUnsupported = errors.New("not supported by this database")

// ErrUnsupportedType is returned for an unknown engine name.
var ErrUnsupportedType = errors.New("unsupported database type")

// Config holds database connection configuration
type Config struct {
	Type     string // "mysql", "postgres" or "sqlite"
	Host     string
	Port     string
	Database string
	User     string
	Password string
	// Path is the database file for SQLite.
	Path string
	// Queries overrides or adds auxiliary query SQL by query name.
	Queries map[string]string
}

// SchemaRef identifies a schema to a Source.
type SchemaRef struct {
	Catalog string
	Schema  string
}

// TableRef identifies a table to a Source.
type TableRef struct {
	Catalog string
	Schema  string
	Table   string
}

// ProcedureRef identifies a procedure to a Source.
type ProcedureRef struct {
	Catalog      string
	Schema       string
	Procedure    string
	SpecificName string
}

// Source defines the metadata calls a crawl makes against a database
type Source interface {
	Connect() error
	Close() error

	// DatabaseInfo returns one row with PRODUCT_NAME, PRODUCT_VERSION,
	// USER_NAME, DRIVER_NAME and DRIVER_VERSION.
	DatabaseInfo() (Row, error)
	// AdditionalDatabaseInfo returns server settings as NAME and VALUE.
	AdditionalDatabaseInfo() (Rows, error)
	// ListCatalogs returns TABLE_CAT.
	ListCatalogs() (Rows, error)
	// ListSchemas returns TABLE_CATALOG and TABLE_SCHEM.
	ListSchemas() (Rows, error)
	// ListColumnDataTypes returns the system types as TYPE_NAME, DATA_TYPE,
	// PRECISION, NULLABLE, AUTO_INCREMENT and CREATE_PARAMS.
	ListColumnDataTypes() (Rows, error)
	// ListUserDefinedTypes returns TYPE_NAME, DATA_TYPE, BASE_TYPE and
	// REMARKS.
	ListUserDefinedTypes(s SchemaRef) (Rows, error)
	// ListTables returns TABLE_NAME, TABLE_TYPE and REMARKS. The pattern uses
	// SQL LIKE syntax; an empty pattern or type list means all.
	ListTables(s SchemaRef, pattern string, types []string) (Rows, error)
	// ListColumns returns COLUMN_NAME, TYPE_NAME, DATA_TYPE, COLUMN_SIZE,
	// DECIMAL_DIGITS, IS_NULLABLE, COLUMN_DEF, ORDINAL_POSITION,
	// IS_AUTOINCREMENT, IS_GENERATEDCOLUMN and REMARKS.
	ListColumns(t TableRef) (Rows, error)
	// ListPrimaryKey returns COLUMN_NAME, KEY_SEQ and PK_NAME.
	ListPrimaryKey(t TableRef) (Rows, error)
	// ListImportedKeys returns the foreign keys of a table as FK_NAME,
	// PKTABLE_CAT, PKTABLE_SCHEM, PKTABLE_NAME, PKCOLUMN_NAME, FKTABLE_CAT,
	// FKTABLE_SCHEM, FKTABLE_NAME, FKCOLUMN_NAME, KEY_SEQ, UPDATE_RULE,
	// DELETE_RULE and DEFERRABILITY.
	ListImportedKeys(t TableRef) (Rows, error)
	// ListExportedKeys returns the foreign keys referencing a table, with the
	// same columns as ListImportedKeys.
	ListExportedKeys(t TableRef) (Rows, error)
	// ListIndexes returns INDEX_NAME, NON_UNIQUE, COLUMN_NAME,
	// ORDINAL_POSITION, ASC_OR_DESC, TYPE, CARDINALITY, PAGES and
	// FILTER_CONDITION.
	ListIndexes(t TableRef) (Rows, error)
	// ListProcedures returns PROCEDURE_NAME, PROCEDURE_TYPE, SPECIFIC_NAME
	// and REMARKS.
	ListProcedures(s SchemaRef) (Rows, error)
	// ListProcedureColumns returns COLUMN_NAME, COLUMN_TYPE, TYPE_NAME,
	// DATA_TYPE, LENGTH, SCALE, NULLABLE and ORDINAL_POSITION.
	ListProcedureColumns(p ProcedureRef) (Rows, error)
	// Auxiliary runs a named query over the whole database. It returns
	// ErrUnsupported when no SQL is known for the query.
	Auxiliary(q AuxiliaryQuery) (Rows, error)
}

// NewSource creates a metadata source based on type
func NewSource(config Config) (Source, error) {
	switch strings.ToLower(config.Type) {
	case "mysql":
		return NewMySQL(config), nil
	case "postgres", "postgresql":
		return NewPostgres(config), nil
	case "sqlite", "sqlite3":
		return NewSQLite(config), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}
}

// DefaultPort returns the default port of a server engine, or "".
func DefaultPort(dbType string) string {
	switch strings.ToLower(dbType) {
	case "mysql":
		return "3306"
	case "postgres", "postgresql":
		return "5432"
	default:
		return ""
	}
}

// Validate checks that the settings needed to connect are present.
func (c Config) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("database type is required")
	}

	if strings.HasPrefix(strings.ToLower(c.Type), "sqlite") {
		if c.Path == "" {
			return fmt.Errorf("database path is required for %s", c.Type)
		}
		return nil
	}

	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}
