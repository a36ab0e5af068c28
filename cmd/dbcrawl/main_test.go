package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupShop creates a SQLite database and a config file pointing at it
func setupShop(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER NOT NULL REFERENCES customers (id),
			note TEXT
		)`,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR(40) NOT NULL)`,
		`CREATE INDEX orders_customer ON orders (customer_id)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	for _, env := range []string{"DB_TYPE", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PATH"} {
		t.Setenv(env, "")
	}
	cfgPath := filepath.Join(dir, "dbcrawl.yaml")
	content := "database:\n  type: sqlite\n  path: " + dbPath + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	configPath = cfgPath
	infoLevel = ""
	snapshotPath = ""
	alphabetical = false
	showFormat = "text"
	showDialect = ""
	t.Cleanup(func() { configPath = "" })
	return dir
}

func TestCrawlAndShow(t *testing.T) {
	dir := setupShop(t)
	snapshotPath = filepath.Join(dir, "snapshots", "shop.db")

	cmd := newCrawlCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, buf.String(), "Snapshot created successfully")

	show := newShowCommand()
	buf.Reset()
	show.SetOut(buf)
	require.NoError(t, show.RunE(show, []string{snapshotPath}))

	output := buf.String()
	assert.Contains(t, output, "Database: SQLite")
	assert.Contains(t, output, "Info level: verbose")
	customers := strings.Index(output, "main.customers [table]")
	orders := strings.Index(output, "main.orders [table]")
	require.GreaterOrEqual(t, customers, 0)
	require.GreaterOrEqual(t, orders, 0)
	assert.Less(t, customers, orders, "referenced tables come first")
	assert.Contains(t, output, "-> main.customers (id)")

	showFormat = "ddl"
	buf.Reset()
	require.NoError(t, show.RunE(show, []string{snapshotPath}))
	assert.Contains(t, buf.String(), `CREATE TABLE "customers"`)
	assert.Contains(t, buf.String(), `CREATE INDEX "orders_customer" ON "orders"`)

	showFormat = "yaml"
	assert.Error(t, show.RunE(show, []string{snapshotPath}))
}

func TestCrawlPrintsOutline(t *testing.T) {
	setupShop(t)
	alphabetical = true

	cmd := newCrawlCommand()
	require.NoError(t, cmd.Flags().Set("alphabetical", "true"))
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	require.NoError(t, cmd.RunE(cmd, nil))

	output := buf.String()
	assert.Less(t, strings.Index(output, "main.customers [table]"), strings.Index(output, "main.orders [table]"))
	assert.Contains(t, output, "  name VARCHAR(40) not null")
}

func TestCrawlGrep(t *testing.T) {
	tests := []struct {
		name      string
		extra     string
		customers bool
	}{
		{"matching tables", "", false},
		{"with parents", "  parent_table_depth: 1\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupShop(t)
			content, err := os.ReadFile(configPath)
			require.NoError(t, err)
			grep := "crawl:\n  grep:\n    columns:\n      include: .*\\.customer_id\n" + tt.extra
			require.NoError(t, os.WriteFile(configPath, append(content, grep...), 0644))

			cmd := newCrawlCommand()
			buf := &bytes.Buffer{}
			cmd.SetOut(buf)
			require.NoError(t, cmd.RunE(cmd, nil))

			output := buf.String()
			assert.Contains(t, output, "main.orders [table]")
			if tt.customers {
				assert.Contains(t, output, "main.customers [table]")
			} else {
				assert.NotContains(t, output, "main.customers [table]")
			}
		})
	}
}

func TestCrawlRequiresDatabase(t *testing.T) {
	setupShop(t)
	configPath = filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0644))

	cmd := newCrawlCommand()
	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database config")
}

func TestDiff(t *testing.T) {
	dir := setupShop(t)
	first := filepath.Join(dir, "first.db")
	second := filepath.Join(dir, "second.db")

	snapshotPath = first
	cmd := newCrawlCommand()
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.RunE(cmd, nil))

	db, err := sql.Open("sqlite", filepath.Join(dir, "shop.db"))
	require.NoError(t, err)
	_, err = db.Exec(`ALTER TABLE customers ADD COLUMN email TEXT`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	snapshotPath = second
	require.NoError(t, cmd.RunE(cmd, nil))

	diffCmd := newDiffCommand()
	buf := &bytes.Buffer{}
	diffCmd.SetOut(buf)
	require.NoError(t, diffCmd.RunE(diffCmd, []string{first, second}))
	assert.Contains(t, buf.String(), "Table: main.customers")
	assert.Contains(t, buf.String(), "    - email: ADD")

	buf.Reset()
	require.NoError(t, diffCmd.RunE(diffCmd, []string{first, first}))
	assert.Equal(t, "No differences found.\n", buf.String())
}

func TestLevels(t *testing.T) {
	cmd := newLevelsCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	require.NoError(t, cmd.RunE(cmd, nil))

	output := buf.String()
	assert.Contains(t, output, "minimum:\n  retrieve_database_info\n")
	assert.Contains(t, output, "  retrieve_weak_associations\n")
	assert.Contains(t, output, "standard is verbose\n")
}
