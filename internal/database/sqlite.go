package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite implements the Source interface for SQLite files. Attached
// databases are schemas of the unnamed catalog; the main file is "main".
type SQLite struct {
	sqlSource
	config Config
}

// NewSQLite creates a new SQLite metadata source
func NewSQLite(config Config) *SQLite {
	return &SQLite{sqlSource: newSQLSource(sqliteQueries, config.Queries), config: config}
}

// NewSQLiteFromDB wraps an open connection.
func NewSQLiteFromDB(db *sql.DB, config Config) *SQLite {
	s := NewSQLite(config)
	s.db = db
	return s
}

// Connect opens the database file
func (s *SQLite) Connect() error {
	path := s.config.Path
	if path == "" {
		path = s.config.Database
	}
	if path == "" {
		return fmt.Errorf("failed to open SQLite database: no path configured")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite: %w", err)
	}

	s.db = db
	return nil
}

// DatabaseInfo retrieves the library version
func (s *SQLite) DatabaseInfo() (Row, error) {
	rows, err := s.query("SELECT 'SQLite' AS product_name, sqlite_version() AS product_version, '' AS user_name")
	if err != nil {
		return nil, fmt.Errorf("failed to get database info: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to get database info: no rows")
	}
	row := rows[0]
	row["DRIVER_NAME"] = "modernc.org/sqlite"
	row["DRIVER_VERSION"] = ""
	return row, nil
}

// AdditionalDatabaseInfo retrieves the compile options
func (s *SQLite) AdditionalDatabaseInfo() (Rows, error) {
	rows, err := s.query("SELECT compile_options AS name, 'ON' AS value FROM pragma_compile_options")
	if err != nil {
		return nil, fmt.Errorf("failed to get compile options: %w", err)
	}
	return rows, nil
}

// ListCatalogs returns the unnamed catalog
func (s *SQLite) ListCatalogs() (Rows, error) {
	return Rows{{"TABLE_CAT": ""}}, nil
}

// ListSchemas retrieves the main and attached databases
func (s *SQLite) ListSchemas() (Rows, error) {
	rows, err := s.query("SELECT '' AS table_catalog, name AS table_schem FROM pragma_database_list WHERE name <> 'temp' ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to get schemas: %w", err)
	}
	return rows, nil
}

// ListColumnDataTypes returns the storage classes
func (s *SQLite) ListColumnDataTypes() (Rows, error) {
	var rows Rows
	for _, name := range []string{"INTEGER", "REAL", "TEXT", "BLOB", "NUMERIC"} {
		rows = append(rows, Row{
			"TYPE_NAME":      name,
			"NULLABLE":       "YES",
			"AUTO_INCREMENT": name == "INTEGER",
		})
	}
	return withDataTypes(rows), nil
}

// ListUserDefinedTypes returns nothing; SQLite has no user defined types
func (s *SQLite) ListUserDefinedTypes(ref SchemaRef) (Rows, error) {
	return nil, nil
}

// ListTables retrieves the tables and views of a schema
func (s *SQLite) ListTables(ref SchemaRef, pattern string, types []string) (Rows, error) {
	query := fmt.Sprintf(`
		SELECT name AS table_name, upper(type) AS table_type, NULL AS remarks
		FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%' AND name LIKE ?
		ORDER BY name
	`, quoteIdent(schemaName(ref.Schema)))
	rows, err := s.query(query, likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return filterTableTypes(rows, types), nil
}

var typeSize = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// ListColumns retrieves the columns of a table
func (s *SQLite) ListColumns(t TableRef) (Rows, error) {
	query := `
		SELECT
			name AS column_name,
			type AS type_name,
			"notnull" AS not_null,
			dflt_value AS column_def,
			cid + 1 AS ordinal_position,
			pk,
			hidden
		FROM pragma_table_xinfo(?, ?)
		ORDER BY cid
	`
	rows, err := s.query(query, t.Table, schemaName(t.Schema))
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	pkColumns := 0
	for _, row := range rows {
		if row.Int("PK", 0) > 0 {
			pkColumns++
		}
	}

	for _, row := range rows {
		typeName := row.String("TYPE_NAME", "")
		if m := typeSize.FindStringSubmatch(typeName); m != nil {
			row["COLUMN_SIZE"], _ = strconv.Atoi(m[1])
			if m[2] != "" {
				row["DECIMAL_DIGITS"], _ = strconv.Atoi(m[2])
			}
		}
		if row.Bool("NOT_NULL", false) {
			row["IS_NULLABLE"] = "NO"
		} else {
			row["IS_NULLABLE"] = "YES"
		}
		// An INTEGER PRIMARY KEY is an alias for the rowid
		rowID := pkColumns == 1 && row.Int("PK", 0) == 1 && strings.EqualFold(strings.TrimSpace(typeName), "integer")
		row["IS_AUTOINCREMENT"] = yesNo(rowID)
		hidden := row.Int("HIDDEN", 0)
		row["IS_GENERATEDCOLUMN"] = yesNo(hidden == 2 || hidden == 3)
	}
	return withDataTypes(rows), nil
}

// ListPrimaryKey retrieves the primary key columns of a table. SQLite does
// not name primary keys.
func (s *SQLite) ListPrimaryKey(t TableRef) (Rows, error) {
	query := `
		SELECT name AS column_name, pk AS key_seq, '' AS pk_name
		FROM pragma_table_info(?, ?)
		WHERE pk > 0
		ORDER BY pk
	`
	rows, err := s.query(query, t.Table, schemaName(t.Schema))
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}
	return rows, nil
}

// ListImportedKeys retrieves the foreign keys declared on a table. SQLite
// does not name foreign keys, so FK_NAME is empty.
func (s *SQLite) ListImportedKeys(t TableRef) (Rows, error) {
	query := `
		SELECT
			'' AS fk_name,
			"table" AS pktable_name,
			"to" AS pkcolumn_name,
			"from" AS fkcolumn_name,
			seq + 1 AS key_seq,
			on_update AS update_rule,
			on_delete AS delete_rule
		FROM pragma_foreign_key_list(?, ?)
		ORDER BY id, seq
	`
	schema := schemaName(t.Schema)
	rows, err := s.query(query, t.Table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	for _, row := range rows {
		row["FKTABLE_NAME"] = t.Table
	}
	return s.completeForeignKeys(rows, schema)
}

// ListExportedKeys retrieves the foreign keys referencing a table
func (s *SQLite) ListExportedKeys(t TableRef) (Rows, error) {
	schema := schemaName(t.Schema)
	query := fmt.Sprintf(`
		SELECT
			'' AS fk_name,
			f."table" AS pktable_name,
			f."to" AS pkcolumn_name,
			m.name AS fktable_name,
			f."from" AS fkcolumn_name,
			f.seq + 1 AS key_seq,
			f.on_update AS update_rule,
			f.on_delete AS delete_rule
		FROM %s.sqlite_master m
		JOIN pragma_foreign_key_list(m.name, ?) f
		WHERE m.type = 'table' AND f."table" = ? COLLATE NOCASE
		ORDER BY m.name, f.id, f.seq
	`, quoteIdent(schema))
	rows, err := s.query(query, schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get exported keys: %w", err)
	}
	return s.completeForeignKeys(rows, schema)
}

// completeForeignKeys fills in the schema columns, and resolves references
// that omit the parent column to the parent's primary key.
func (s *SQLite) completeForeignKeys(rows Rows, schema string) (Rows, error) {
	for _, row := range rows {
		row["PKTABLE_CAT"] = ""
		row["PKTABLE_SCHEM"] = schema
		row["FKTABLE_CAT"] = ""
		row["FKTABLE_SCHEM"] = schema
		row["DEFERRABILITY"] = "not deferrable"
		if row.Has("PKCOLUMN_NAME") {
			continue
		}
		pk, err := s.ListPrimaryKey(TableRef{Schema: schema, Table: row.String("PKTABLE_NAME", "")})
		if err != nil {
			return nil, err
		}
		seq := row.Int("KEY_SEQ", 1)
		for _, pkRow := range pk {
			if pkRow.Int("KEY_SEQ", 0) == seq {
				row["PKCOLUMN_NAME"] = pkRow.String("COLUMN_NAME", "")
			}
		}
	}
	return rows, nil
}

// ListIndexes retrieves the indexes of a table
func (s *SQLite) ListIndexes(t TableRef) (Rows, error) {
	schema := schemaName(t.Schema)
	query := `
		SELECT
			il.name AS index_name,
			NOT il."unique" AS non_unique,
			ii.name AS column_name,
			ii.seqno + 1 AS ordinal_position,
			CASE ii."desc" WHEN 1 THEN 'D' ELSE 'A' END AS asc_or_desc,
			il.origin AS origin,
			il.partial AS partial
		FROM pragma_index_list(?, ?) il
		JOIN pragma_index_xinfo(il.name, ?) ii
		WHERE ii.key = 1
		ORDER BY il.name, ii.seqno
	`
	rows, err := s.query(query, t.Table, schema, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	return rows, nil
}

// ListProcedures returns nothing; SQLite has no stored procedures
func (s *SQLite) ListProcedures(ref SchemaRef) (Rows, error) {
	return nil, nil
}

// ListProcedureColumns returns nothing; SQLite has no stored procedures
func (s *SQLite) ListProcedureColumns(p ProcedureRef) (Rows, error) {
	return nil, nil
}

func schemaName(schema string) string {
	if schema == "" {
		return "main"
	}
	return schema
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

var sqliteQueries = map[AuxiliaryQuery]string{
	ViewDefinitions: `
		SELECT '' AS table_catalog, 'main' AS table_schema, name AS table_name, sql AS view_definition
		FROM sqlite_master
		WHERE type = 'view'
	`,
	Triggers: `
		SELECT
			'' AS trigger_catalog, 'main' AS trigger_schema, name AS trigger_name,
			'' AS event_object_catalog, 'main' AS event_object_schema, tbl_name AS event_object_table,
			sql AS action_statement
		FROM sqlite_master
		WHERE type = 'trigger'
	`,
	AdditionalTableAttributes: `
		SELECT '' AS table_catalog, 'main' AS table_schema, name AS table_name, sql AS table_sql
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`,
}
