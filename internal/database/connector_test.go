package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestNewSource(t *testing.T) {
	for _, name := range []string{"mysql", "MySQL", "postgres", "PostgreSQL", "sqlite", "sqlite3"} {
		source, err := NewSource(Config{Type: name})
		require.NoError(t, err, name)
		assert.NotNil(t, source)
	}

	_, err := NewSource(Config{Type: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: "postgres", Host: "localhost", Database: "shop"}.Validate())
	assert.NoError(t, Config{Type: "sqlite", Path: "/tmp/app.db"}.Validate())

	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Type: "sqlite"}.Validate())
	assert.Error(t, Config{Type: "mysql", Host: "localhost"}.Validate())
}

func TestMySQLDSN(t *testing.T) {
	m := NewMySQL(Config{Host: "db", Port: "3306", Database: "shop", User: "app", Password: "secret"})
	assert.Equal(t, "app:secret@tcp(db:3306)/shop?parseTime=true", m.DSN())
}

func TestPostgresListSchemas(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"table_catalog", "table_schem"}).
			AddRow("shop", "public").
			AddRow("shop", "audit"))

	rows, err := NewPostgresFromDB(db, Config{}).ListSchemas()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "shop", rows[0].String("TABLE_CATALOG", ""))
	assert.Equal(t, "audit", rows[1].String("TABLE_SCHEM", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListColumnsAddsTypeCodes(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema.columns c`).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "type_name", "is_nullable", "ordinal_position"}).
			AddRow("id", "integer", "NO", 1).
			AddRow("note", "text", "YES", 2))

	rows, err := NewPostgresFromDB(db, Config{}).ListColumns(TableRef{Catalog: "shop", Schema: "public", Table: "orders"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Int("DATA_TYPE", 0))
	assert.Equal(t, -1, rows[1].Int("DATA_TYPE", 0))
	assert.False(t, rows[0].Bool("IS_NULLABLE", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresForeignKeyRules(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM pg_constraint con`).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"fk_name", "pktable_name", "pkcolumn_name", "fkcolumn_name", "key_seq", "update_rule", "delete_rule"}).
			AddRow("orders_customer_fk", "customers", "id", "customer_id", 1, "a", "c"))

	rows, err := NewPostgresFromDB(db, Config{}).ListImportedKeys(TableRef{Schema: "public", Table: "orders"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NO ACTION", rows[0].String("UPDATE_RULE", ""))
	assert.Equal(t, "CASCADE", rows[0].String("DELETE_RULE", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLListTables(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema.TABLES`).
		WithArgs("shop", "%").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_type", "remarks"}).
			AddRow("orders", "TABLE", "").
			AddRow("v_orders", "VIEW", ""))

	rows, err := NewMySQLFromDB(db, Config{}).ListTables(SchemaRef{Schema: "shop"}, "", []string{"TABLE"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "orders", rows[0].String("TABLE_NAME", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuxiliaryQueries(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	m := NewMySQLFromDB(db, Config{Queries: map[string]string{
		"VIEW_DEFINITIONS": "SELECT custom_views",
	}})

	mock.ExpectQuery(`SELECT custom_views`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "view_definition"}).
			AddRow("v_orders", "select 1"))

	rows, err := m.Auxiliary(ViewDefinitions)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "select 1", rows[0].String("VIEW_DEFINITION", ""))

	s := NewSQLite(Config{})
	_, err = s.Auxiliary(CheckConstraints)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	source := NewSQLite(Config{Path: path})
	require.NoError(t, source.Connect())
	defer source.Close()

	for _, stmt := range []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR(40) NOT NULL)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER REFERENCES customers ON DELETE CASCADE,
			total NUMERIC(10, 2)
		)`,
		`CREATE INDEX orders_customer ON orders (customer_id DESC)`,
		`CREATE VIEW v_orders AS SELECT * FROM orders`,
	} {
		_, err := source.db.Exec(stmt)
		require.NoError(t, err)
	}

	info, err := source.DatabaseInfo()
	require.NoError(t, err)
	assert.Equal(t, "SQLite", info.String("PRODUCT_NAME", ""))
	assert.NotEmpty(t, info.String("PRODUCT_VERSION", ""))

	schemas, err := source.ListSchemas()
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "main", schemas[0].String("TABLE_SCHEM", ""))

	tables, err := source.ListTables(SchemaRef{Schema: "main"}, "", nil)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, "VIEW", tables[2].String("TABLE_TYPE", ""))

	orders := TableRef{Schema: "main", Table: "orders"}
	columns, err := source.ListColumns(orders)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.True(t, columns[0].Bool("IS_AUTOINCREMENT", false))
	assert.Equal(t, 10, columns[2].Int("COLUMN_SIZE", 0))
	assert.Equal(t, 2, columns[2].Int("DECIMAL_DIGITS", 0))

	pk, err := source.ListPrimaryKey(orders)
	require.NoError(t, err)
	require.Len(t, pk, 1)
	assert.Equal(t, "id", pk[0].String("COLUMN_NAME", ""))

	fks, err := source.ListImportedKeys(orders)
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "customers", fks[0].String("PKTABLE_NAME", ""))
	assert.Equal(t, "id", fks[0].String("PKCOLUMN_NAME", ""))
	assert.Equal(t, "CASCADE", fks[0].String("DELETE_RULE", ""))

	exported, err := source.ListExportedKeys(TableRef{Schema: "main", Table: "customers"})
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "orders", exported[0].String("FKTABLE_NAME", ""))

	indexes, err := source.ListIndexes(orders)
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "orders_customer", indexes[0].String("INDEX_NAME", ""))
	assert.Equal(t, "D", indexes[0].String("ASC_OR_DESC", ""))

	views, err := source.Auxiliary(ViewDefinitions)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Contains(t, views[0].String("VIEW_DEFINITION", ""), "SELECT * FROM orders")
}
