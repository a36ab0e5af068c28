package database

import (
	"database/sql"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// MySQL implements the Source interface for MySQL. MySQL has no catalogs;
// every database is reported as a schema of the unnamed catalog.
type MySQL struct {
	sqlSource
	config Config
}

// NewMySQL creates a new MySQL metadata source
func NewMySQL(config Config) *MySQL {
	return &MySQL{sqlSource: newSQLSource(mysqlQueries, config.Queries), config: config}
}

// NewMySQLFromDB wraps an open connection.
func NewMySQLFromDB(db *sql.DB, config Config) *MySQL {
	m := NewMySQL(config)
	m.db = db
	return m
}

// DSN returns the driver connection string for the configuration.
func (m *MySQL) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = m.config.User
	cfg.Passwd = m.config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(m.config.Host, m.config.Port)
	cfg.DBName = m.config.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Connect establishes a connection to MySQL
func (m *MySQL) Connect() error {
	db, err := sql.Open("mysql", m.DSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m.db = db
	return nil
}

// DatabaseInfo retrieves the server product and version
func (m *MySQL) DatabaseInfo() (Row, error) {
	rows, err := m.query("SELECT 'MySQL' AS product_name, VERSION() AS product_version, CURRENT_USER() AS user_name")
	if err != nil {
		return nil, fmt.Errorf("failed to get database info: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to get database info: no rows")
	}
	row := rows[0]
	row["DRIVER_NAME"] = "github.com/go-sql-driver/mysql"
	row["DRIVER_VERSION"] = ""
	return row, nil
}

// AdditionalDatabaseInfo retrieves the global server variables
func (m *MySQL) AdditionalDatabaseInfo() (Rows, error) {
	query := `
		SELECT VARIABLE_NAME AS name, VARIABLE_VALUE AS value
		FROM performance_schema.global_variables
		ORDER BY VARIABLE_NAME
	`
	rows, err := m.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get server variables: %w", err)
	}
	return rows, nil
}

// ListCatalogs returns the unnamed catalog
func (m *MySQL) ListCatalogs() (Rows, error) {
	return Rows{{"TABLE_CAT": ""}}, nil
}

// ListSchemas retrieves all non-system databases
func (m *MySQL) ListSchemas() (Rows, error) {
	query := `
		SELECT '' AS table_catalog, SCHEMA_NAME AS table_schem
		FROM information_schema.SCHEMATA
		WHERE SCHEMA_NAME NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY SCHEMA_NAME
	`
	rows, err := m.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get schemas: %w", err)
	}
	return rows, nil
}

var mysqlTypes = []string{
	"bit", "tinyint", "smallint", "mediumint", "int", "bigint",
	"decimal", "float", "double",
	"char", "varchar", "tinytext", "text", "mediumtext", "longtext",
	"binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob",
	"date", "time", "datetime", "timestamp", "year",
	"enum", "set", "json",
}

// ListColumnDataTypes returns the built in types
func (m *MySQL) ListColumnDataTypes() (Rows, error) {
	rows := make(Rows, 0, len(mysqlTypes))
	for _, name := range mysqlTypes {
		rows = append(rows, Row{
			"TYPE_NAME":      name,
			"NULLABLE":       "YES",
			"AUTO_INCREMENT": name == "tinyint" || name == "smallint" || name == "mediumint" || name == "int" || name == "bigint",
		})
	}
	return withDataTypes(rows), nil
}

// ListUserDefinedTypes returns nothing; MySQL has no user defined types
func (m *MySQL) ListUserDefinedTypes(s SchemaRef) (Rows, error) {
	return nil, nil
}

// ListTables retrieves the tables and views of a database
func (m *MySQL) ListTables(s SchemaRef, pattern string, types []string) (Rows, error) {
	query := `
		SELECT
			TABLE_NAME AS table_name,
			CASE TABLE_TYPE WHEN 'BASE TABLE' THEN 'TABLE' ELSE TABLE_TYPE END AS table_type,
			TABLE_COMMENT AS remarks
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME LIKE ?
		ORDER BY TABLE_NAME
	`
	rows, err := m.query(query, s.Schema, likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return filterTableTypes(rows, types), nil
}

// ListColumns retrieves the columns of a table
func (m *MySQL) ListColumns(t TableRef) (Rows, error) {
	query := `
		SELECT
			COLUMN_NAME AS column_name,
			DATA_TYPE AS type_name,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, DATETIME_PRECISION) AS column_size,
			NUMERIC_SCALE AS decimal_digits,
			IS_NULLABLE AS is_nullable,
			COLUMN_DEFAULT AS column_def,
			ORDINAL_POSITION AS ordinal_position,
			IF(EXTRA LIKE '%auto_increment%', 'YES', 'NO') AS is_autoincrement,
			IF(EXTRA LIKE '%GENERATED%', 'YES', 'NO') AS is_generatedcolumn,
			COLUMN_COMMENT AS remarks
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	return withDataTypes(rows), nil
}

// ListPrimaryKey retrieves the primary key columns of a table
func (m *MySQL) ListPrimaryKey(t TableRef) (Rows, error) {
	query := `
		SELECT COLUMN_NAME AS column_name, ORDINAL_POSITION AS key_seq, CONSTRAINT_NAME AS pk_name
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}
	return rows, nil
}

const mysqlForeignKeys = `
	SELECT
		kcu.CONSTRAINT_NAME AS fk_name,
		'' AS pktable_cat,
		kcu.REFERENCED_TABLE_SCHEMA AS pktable_schem,
		kcu.REFERENCED_TABLE_NAME AS pktable_name,
		kcu.REFERENCED_COLUMN_NAME AS pkcolumn_name,
		'' AS fktable_cat,
		kcu.TABLE_SCHEMA AS fktable_schem,
		kcu.TABLE_NAME AS fktable_name,
		kcu.COLUMN_NAME AS fkcolumn_name,
		kcu.ORDINAL_POSITION AS key_seq,
		rc.UPDATE_RULE AS update_rule,
		rc.DELETE_RULE AS delete_rule,
		'not deferrable' AS deferrability
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
		ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
	WHERE kcu.REFERENCED_TABLE_NAME IS NOT NULL AND %s
	ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
`

// ListImportedKeys retrieves the foreign keys declared on a table
func (m *MySQL) ListImportedKeys(t TableRef) (Rows, error) {
	rows, err := m.query(fmt.Sprintf(mysqlForeignKeys, "kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?"), t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	return rows, nil
}

// ListExportedKeys retrieves the foreign keys referencing a table
func (m *MySQL) ListExportedKeys(t TableRef) (Rows, error) {
	rows, err := m.query(fmt.Sprintf(mysqlForeignKeys, "kcu.REFERENCED_TABLE_SCHEMA = ? AND kcu.REFERENCED_TABLE_NAME = ?"), t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get exported keys: %w", err)
	}
	return rows, nil
}

// ListIndexes retrieves the indexes of a table, including PRIMARY
func (m *MySQL) ListIndexes(t TableRef) (Rows, error) {
	query := `
		SELECT
			INDEX_NAME AS index_name,
			NON_UNIQUE AS non_unique,
			COLUMN_NAME AS column_name,
			SEQ_IN_INDEX AS ordinal_position,
			COLLATION AS asc_or_desc,
			INDEX_TYPE AS type,
			CARDINALITY AS cardinality
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := m.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	return rows, nil
}

// ListProcedures retrieves the stored procedures and functions of a database
func (m *MySQL) ListProcedures(s SchemaRef) (Rows, error) {
	query := `
		SELECT
			ROUTINE_NAME AS procedure_name,
			LOWER(ROUTINE_TYPE) AS procedure_type,
			SPECIFIC_NAME AS specific_name,
			ROUTINE_COMMENT AS remarks
		FROM information_schema.ROUTINES
		WHERE ROUTINE_SCHEMA = ?
		ORDER BY ROUTINE_NAME
	`
	rows, err := m.query(query, s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get procedures: %w", err)
	}
	return rows, nil
}

// ListProcedureColumns retrieves the parameters of a procedure. The return
// value of a function is reported at position 0.
func (m *MySQL) ListProcedureColumns(p ProcedureRef) (Rows, error) {
	query := `
		SELECT
			COALESCE(PARAMETER_NAME, 'return') AS column_name,
			COALESCE(LOWER(PARAMETER_MODE), 'return') AS column_type,
			DATA_TYPE AS type_name,
			CHARACTER_MAXIMUM_LENGTH AS length,
			NUMERIC_SCALE AS scale,
			ORDINAL_POSITION AS ordinal_position
		FROM information_schema.PARAMETERS
		WHERE SPECIFIC_SCHEMA = ? AND SPECIFIC_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.query(query, p.Schema, p.SpecificName)
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure columns: %w", err)
	}
	return withDataTypes(rows), nil
}

var mysqlQueries = map[AuxiliaryQuery]string{
	CheckConstraints: `
		SELECT '' AS table_catalog, tc.TABLE_SCHEMA AS table_schema, tc.TABLE_NAME AS table_name,
			cc.CONSTRAINT_NAME AS constraint_name, cc.CHECK_CLAUSE AS check_clause
		FROM information_schema.CHECK_CONSTRAINTS cc
		JOIN information_schema.TABLE_CONSTRAINTS tc
			ON tc.CONSTRAINT_SCHEMA = cc.CONSTRAINT_SCHEMA
			AND tc.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
		WHERE tc.CONSTRAINT_TYPE = 'CHECK'
	`,
	Triggers: `
		SELECT
			'' AS trigger_catalog, TRIGGER_SCHEMA AS trigger_schema, TRIGGER_NAME AS trigger_name,
			'' AS event_object_catalog, EVENT_OBJECT_SCHEMA AS event_object_schema, EVENT_OBJECT_TABLE AS event_object_table,
			EVENT_MANIPULATION AS event_manipulation, ACTION_ORDER AS action_order, ACTION_CONDITION AS action_condition,
			ACTION_STATEMENT AS action_statement, ACTION_ORIENTATION AS action_orientation, ACTION_TIMING AS action_timing
		FROM information_schema.TRIGGERS
	`,
	ViewDefinitions: `
		SELECT '' AS table_catalog, TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name, VIEW_DEFINITION AS view_definition
		FROM information_schema.VIEWS
	`,
	TablePrivileges: `
		SELECT '' AS table_catalog, TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name,
			NULL AS grantor, GRANTEE AS grantee, PRIVILEGE_TYPE AS privilege_type, IS_GRANTABLE AS is_grantable
		FROM information_schema.TABLE_PRIVILEGES
	`,
	ColumnPrivileges: `
		SELECT '' AS table_catalog, TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name, COLUMN_NAME AS column_name,
			NULL AS grantor, GRANTEE AS grantee, PRIVILEGE_TYPE AS privilege_type, IS_GRANTABLE AS is_grantable
		FROM information_schema.COLUMN_PRIVILEGES
	`,
	AdditionalTableAttributes: `
		SELECT '' AS table_catalog, TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name,
			ENGINE AS engine, TABLE_ROWS AS table_rows, TABLE_COLLATION AS table_collation
		FROM information_schema.TABLES
	`,
	AdditionalColumnAttributes: `
		SELECT '' AS table_catalog, TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name, COLUMN_NAME AS column_name,
			CHARACTER_SET_NAME AS character_set_name, COLLATION_NAME AS collation_name, COLUMN_TYPE AS column_type
		FROM information_schema.COLUMNS
	`,
	ProcedureDefinitions: `
		SELECT '' AS routine_catalog, ROUTINE_SCHEMA AS routine_schema, ROUTINE_NAME AS routine_name,
			SPECIFIC_NAME AS specific_name, ROUTINE_DEFINITION AS routine_definition
		FROM information_schema.ROUTINES
	`,
}
