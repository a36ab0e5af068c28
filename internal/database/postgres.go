package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres implements the Source interface for PostgreSQL
type Postgres struct {
	sqlSource
	config Config
}

// NewPostgres creates a new PostgreSQL metadata source
func NewPostgres(config Config) *Postgres {
	return &Postgres{sqlSource: newSQLSource(postgresQueries, config.Queries), config: config}
}

// NewPostgresFromDB wraps an open connection.
func NewPostgresFromDB(db *sql.DB, config Config) *Postgres {
	p := NewPostgres(config)
	p.db = db
	return p
}

// Connect establishes a connection to PostgreSQL
func (p *Postgres) Connect() error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.config.Host,
		p.config.Port,
		p.config.User,
		p.config.Password,
		p.config.Database,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.db = db
	return nil
}

// DatabaseInfo retrieves the server product and version
func (p *Postgres) DatabaseInfo() (Row, error) {
	rows, err := p.query(`
		SELECT
			'PostgreSQL' AS product_name,
			current_setting('server_version') AS product_version,
			current_user AS user_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get database info: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to get database info: no rows")
	}
	row := rows[0]
	row["DRIVER_NAME"] = "github.com/lib/pq"
	row["DRIVER_VERSION"] = ""
	return row, nil
}

// AdditionalDatabaseInfo retrieves the server settings
func (p *Postgres) AdditionalDatabaseInfo() (Rows, error) {
	rows, err := p.query(`SELECT name, setting AS value FROM pg_settings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get server settings: %w", err)
	}
	return rows, nil
}

// ListCatalogs returns the current database as the only catalog
func (p *Postgres) ListCatalogs() (Rows, error) {
	rows, err := p.query(`SELECT current_database() AS table_cat`)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalogs: %w", err)
	}
	return rows, nil
}

// ListSchemas retrieves all non-system schemas
func (p *Postgres) ListSchemas() (Rows, error) {
	query := `
		SELECT catalog_name AS table_catalog, schema_name AS table_schem
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
			AND schema_name NOT LIKE 'pg_temp_%'
			AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name
	`
	rows, err := p.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get schemas: %w", err)
	}
	return rows, nil
}

// ListColumnDataTypes retrieves the built in base types
func (p *Postgres) ListColumnDataTypes() (Rows, error) {
	query := `
		SELECT
			t.typname AS type_name,
			CASE WHEN t.typlen > 0 THEN t.typlen ELSE NULL END AS precision,
			'YES' AS nullable,
			'NO' AS auto_increment
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = 'pg_catalog' AND t.typtype = 'b' AND t.typelem = 0
		ORDER BY t.typname
	`
	rows, err := p.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get data types: %w", err)
	}
	return withDataTypes(rows), nil
}

// ListUserDefinedTypes retrieves domains and enums of a schema
func (p *Postgres) ListUserDefinedTypes(s SchemaRef) (Rows, error) {
	query := `
		SELECT
			t.typname AS type_name,
			CASE t.typtype WHEN 'e' THEN 12 ELSE 2001 END AS data_type,
			CASE t.typtype WHEN 'd' THEN format_type(t.typbasetype, NULL) END AS base_type,
			obj_description(t.oid, 'pg_type') AS remarks
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1 AND t.typtype IN ('d', 'e')
		ORDER BY t.typname
	`
	rows, err := p.query(query, s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get user defined types: %w", err)
	}
	return rows, nil
}

// ListTables retrieves the tables and views of a schema
func (p *Postgres) ListTables(s SchemaRef, pattern string, types []string) (Rows, error) {
	query := `
		SELECT
			t.table_name,
			CASE t.table_type WHEN 'BASE TABLE' THEN 'TABLE' ELSE t.table_type END AS table_type,
			obj_description(c.oid, 'pg_class') AS remarks
		FROM information_schema.tables t
		LEFT JOIN pg_namespace n ON n.nspname = t.table_schema
		LEFT JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
		WHERE t.table_schema = $1 AND t.table_name LIKE $2
		ORDER BY t.table_name
	`
	rows, err := p.query(query, s.Schema, likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return filterTableTypes(rows, types), nil
}

// ListColumns retrieves the columns of a table
func (p *Postgres) ListColumns(t TableRef) (Rows, error) {
	query := `
		SELECT
			c.column_name,
			CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name ELSE c.data_type END AS type_name,
			COALESCE(c.character_maximum_length, c.numeric_precision, c.datetime_precision) AS column_size,
			c.numeric_scale AS decimal_digits,
			c.is_nullable,
			c.column_default AS column_def,
			c.ordinal_position,
			CASE WHEN c.column_default LIKE 'nextval(%' OR c.is_identity = 'YES' THEN 'YES' ELSE 'NO' END AS is_autoincrement,
			CASE WHEN c.is_generated = 'ALWAYS' THEN 'YES' ELSE 'NO' END AS is_generatedcolumn,
			col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int) AS remarks
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
	rows, err := p.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	return withDataTypes(rows), nil
}

// ListPrimaryKey retrieves the primary key columns of a table
func (p *Postgres) ListPrimaryKey(t TableRef) (Rows, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.ordinal_position AS key_seq,
			tc.constraint_name AS pk_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`
	rows, err := p.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}
	return rows, nil
}

const postgresForeignKeys = `
	SELECT
		con.conname AS fk_name,
		current_database() AS pktable_cat,
		pn.nspname AS pktable_schem,
		pc.relname AS pktable_name,
		pa.attname AS pkcolumn_name,
		current_database() AS fktable_cat,
		fn.nspname AS fktable_schem,
		fc.relname AS fktable_name,
		fa.attname AS fkcolumn_name,
		k.seq AS key_seq,
		con.confupdtype AS update_rule,
		con.confdeltype AS delete_rule,
		CASE
			WHEN con.condeferrable AND con.condeferred THEN 'initially deferred'
			WHEN con.condeferrable THEN 'initially immediate'
			ELSE 'not deferrable'
		END AS deferrability
	FROM pg_constraint con
	JOIN pg_class fc ON fc.oid = con.conrelid
	JOIN pg_namespace fn ON fn.oid = fc.relnamespace
	JOIN pg_class pc ON pc.oid = con.confrelid
	JOIN pg_namespace pn ON pn.oid = pc.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(fkattnum, pkattnum, seq)
	JOIN pg_attribute fa ON fa.attrelid = con.conrelid AND fa.attnum = k.fkattnum
	JOIN pg_attribute pa ON pa.attrelid = con.confrelid AND pa.attnum = k.pkattnum
	WHERE con.contype = 'f' AND %s
	ORDER BY con.conname, k.seq
`

// ListImportedKeys retrieves the foreign keys declared on a table
func (p *Postgres) ListImportedKeys(t TableRef) (Rows, error) {
	rows, err := p.query(fmt.Sprintf(postgresForeignKeys, "fn.nspname = $1 AND fc.relname = $2"), t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	return postgresRules(rows), nil
}

// ListExportedKeys retrieves the foreign keys referencing a table
func (p *Postgres) ListExportedKeys(t TableRef) (Rows, error) {
	rows, err := p.query(fmt.Sprintf(postgresForeignKeys, "pn.nspname = $1 AND pc.relname = $2"), t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get exported keys: %w", err)
	}
	return postgresRules(rows), nil
}

// postgresRules spells out the single letter action codes of pg_constraint.
func postgresRules(rows Rows) Rows {
	actions := map[string]string{
		"a": "NO ACTION",
		"r": "RESTRICT",
		"c": "CASCADE",
		"n": "SET NULL",
		"d": "SET DEFAULT",
	}
	for _, row := range rows {
		for _, column := range []string{"UPDATE_RULE", "DELETE_RULE"} {
			if action, ok := actions[row.String(column, "")]; ok {
				row[column] = action
			}
		}
	}
	return rows
}

// ListIndexes retrieves the indexes of a table, including the primary key
// index
func (p *Postgres) ListIndexes(t TableRef) (Rows, error) {
	query := `
		SELECT
			i.relname AS index_name,
			NOT ix.indisunique AS non_unique,
			a.attname AS column_name,
			k.seq AS ordinal_position,
			CASE WHEN ix.indoption[k.seq - 1] & 1 = 1 THEN 'D' ELSE 'A' END AS asc_or_desc,
			am.amname AS type,
			i.reltuples::bigint AS cardinality,
			i.relpages AS pages,
			pg_get_expr(ix.indpred, ix.indrelid) AS filter_condition,
			pg_get_indexdef(ix.indexrelid) AS definition
		FROM pg_index ix
		JOIN pg_class c ON c.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, seq)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND c.relname = $2
		ORDER BY i.relname, k.seq
	`
	rows, err := p.query(query, t.Schema, t.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	return rows, nil
}

// ListProcedures retrieves the functions and procedures of a schema
func (p *Postgres) ListProcedures(s SchemaRef) (Rows, error) {
	query := `
		SELECT
			r.routine_name AS procedure_name,
			lower(r.routine_type) AS procedure_type,
			r.specific_name,
			obj_description(pr.oid, 'pg_proc') AS remarks
		FROM information_schema.routines r
		LEFT JOIN pg_namespace n ON n.nspname = r.routine_schema
		LEFT JOIN pg_proc pr ON pr.pronamespace = n.oid AND r.specific_name = pr.proname || '_' || pr.oid
		WHERE r.routine_schema = $1
		ORDER BY r.routine_name, r.specific_name
	`
	rows, err := p.query(query, s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get procedures: %w", err)
	}
	return rows, nil
}

// ListProcedureColumns retrieves the parameters of a procedure
func (p *Postgres) ListProcedureColumns(pr ProcedureRef) (Rows, error) {
	query := `
		SELECT
			COALESCE(parameter_name, '$' || ordinal_position) AS column_name,
			lower(parameter_mode) AS column_type,
			CASE WHEN data_type IN ('USER-DEFINED', 'ARRAY') THEN udt_name ELSE data_type END AS type_name,
			character_maximum_length AS length,
			numeric_scale AS scale,
			ordinal_position
		FROM information_schema.parameters
		WHERE specific_schema = $1 AND specific_name = $2
		ORDER BY ordinal_position
	`
	rows, err := p.query(query, pr.Schema, pr.SpecificName)
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure columns: %w", err)
	}
	return withDataTypes(rows), nil
}

var postgresQueries = map[AuxiliaryQuery]string{
	CheckConstraints: `
		SELECT tc.table_catalog, tc.table_schema, tc.table_name, cc.constraint_name, cc.check_clause,
			tc.is_deferrable, tc.initially_deferred
		FROM information_schema.check_constraints cc
		JOIN information_schema.table_constraints tc
			ON tc.constraint_schema = cc.constraint_schema
			AND tc.constraint_name = cc.constraint_name
		WHERE tc.constraint_type = 'CHECK' AND cc.constraint_name NOT LIKE '%_not_null'
	`,
	Triggers: `
		SELECT
			trigger_catalog, trigger_schema, trigger_name,
			event_object_catalog, event_object_schema, event_object_table,
			event_manipulation, action_order, action_condition, action_statement,
			action_orientation, action_timing
		FROM information_schema.triggers
	`,
	ViewDefinitions: `
		SELECT table_catalog, table_schema, table_name, view_definition
		FROM information_schema.views
	`,
	TablePrivileges: `
		SELECT table_catalog, table_schema, table_name, grantor, grantee, privilege_type, is_grantable
		FROM information_schema.table_privileges
	`,
	ColumnPrivileges: `
		SELECT table_catalog, table_schema, table_name, column_name, grantor, grantee, privilege_type, is_grantable
		FROM information_schema.column_privileges
	`,
	AdditionalTableAttributes: `
		SELECT
			current_database() AS table_catalog,
			n.nspname AS table_schema,
			c.relname AS table_name,
			c.reltuples::bigint AS row_estimate,
			c.relpersistence AS persistence
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p', 'v', 'm')
	`,
	ProcedureDefinitions: `
		SELECT routine_catalog, routine_schema, routine_name, specific_name, routine_definition
		FROM information_schema.routines
	`,
}
