package associations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/dbcrawl/internal/schema"
)

var integerType = schema.NewColumnDataType(nil, "int4", schema.LookupSQLType(schema.TypeInteger))

type fixture struct {
	db     *schema.Database
	schema *schema.Schema
}

func newFixture() *fixture {
	db := schema.NewDatabase()
	catalog := schema.NewCatalog("app")
	db.AddCatalog(catalog)
	s := schema.NewSchema(catalog, "public")
	catalog.AddSchema(s)
	return &fixture{db: db, schema: s}
}

// table creates a table whose first column is a single column primary key.
func (f *fixture) table(name string, columns ...string) *schema.Table {
	t := schema.NewTable(f.schema, name)
	for i, columnName := range columns {
		c := schema.NewColumn(t, columnName)
		c.Ordinal = i + 1
		c.DataType = integerType
		t.AddColumn(c)
	}
	if len(columns) > 0 {
		id, _ := t.LookupColumn(columns[0])
		pk := schema.NewPrimaryKey(t, name+"_pkey")
		pk.AddColumn(1, id, true)
		t.SetPrimaryKey(pk)
	}
	f.schema.AddTable(t)
	return t
}

func (f *fixture) column(t *schema.Table, name string) *schema.Column {
	c, ok := t.LookupColumn(name)
	if !ok {
		panic("missing column " + name)
	}
	return c
}

func TestUsersOrders(t *testing.T) {
	f := newFixture()
	users := f.table("Users", "id", "name")
	orders := f.table("Orders", "id", "user_id")

	candidates := NewAnalyzer(f.schema.Tables(schema.Natural), nil).Analyze()
	require.Len(t, candidates, 1)
	assert.Same(t, f.column(orders, "user_id"), candidates[0].ForeignKeyColumn)
	assert.Same(t, f.column(users, "id"), candidates[0].PrimaryKeyColumn)

	assert.Equal(t, 1, Apply(f.db, candidates))
	assert.Len(t, users.WeakAssociations(), 1)
	assert.Len(t, orders.WeakAssociations(), 1)
	assert.Len(t, f.db.WeakAssociations(), 1)
}

func TestDeclaredForeignKeySuppressesAssociation(t *testing.T) {
	f := newFixture()
	users := f.table("Users", "id")
	orders := f.table("Orders", "id", "user_id")

	fk := schema.NewForeignKey(orders, "fk_orders_users")
	fk.AddColumnReference(1, f.column(users, "id"), f.column(orders, "user_id"))
	orders.AddForeignKey(fk)
	users.AddForeignKey(fk)

	assert.Empty(t, NewAnalyzer(f.schema.Tables(schema.Natural), nil).Analyze())
}

func TestTypeMismatchSuppressesAssociation(t *testing.T) {
	f := newFixture()
	f.table("users", "id")
	orders := f.table("orders", "id", "user_id")
	f.column(orders, "user_id").DataType = schema.NewColumnDataType(nil, "text", schema.LookupSQLType(schema.TypeVarchar))

	assert.Empty(t, NewAnalyzer(f.schema.Tables(schema.Natural), nil).Analyze())
}

func TestCompositePrimaryKeyIsNotMatched(t *testing.T) {
	f := newFixture()
	users := f.table("users", "id", "tenant")
	pk := schema.NewPrimaryKey(users, "users_pkey")
	pk.AddColumn(1, f.column(users, "id"), true)
	pk.AddColumn(2, f.column(users, "tenant"), true)
	users.SetPrimaryKey(pk)
	f.table("orders", "id", "user_id")

	assert.Empty(t, NewAnalyzer(f.schema.Tables(schema.Natural), nil).Analyze())
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	f := newFixture()
	f.table("crm_customers", "id")
	f.table("crm_orders", "id", "customer_id")
	f.table("crm_order_lines", "id", "order_id", "productid")
	f.table("crm_products", "id")

	tables := f.schema.Tables(schema.Natural)
	first := NewAnalyzer(tables, nil).Analyze()
	second := NewAnalyzer(tables, nil).Analyze()
	assert.Equal(t, first, second)
	require.Len(t, first, 3)

	assert.Equal(t, 3, Apply(f.db, first))
	assert.Equal(t, 0, Apply(f.db, second))
	assert.Len(t, f.db.WeakAssociations(), 3)
}

func TestPrefixes(t *testing.T) {
	f := newFixture()
	f.table("crm_customers", "id")
	f.table("crm_order_lines", "id")
	f.table("crm_order_notes", "id")
	f.table("audit_log", "id")

	prefixes := NewAnalyzer(f.schema.Tables(schema.Natural), nil).Prefixes()
	// crm_order_ extends crm_ and is dropped
	assert.Equal(t, []string{"crm_", ""}, prefixes)
}

func TestPrefixesWithoutCommonPrefix(t *testing.T) {
	f := newFixture()
	f.table("users", "id")
	f.table("orders", "id")

	assert.Equal(t, []string{""}, NewAnalyzer(f.schema.Tables(schema.Natural), nil).Prefixes())
}

func TestTableMatches(t *testing.T) {
	f := newFixture()
	customers := f.table("crm_customers", "id")
	orders := f.table("crm_orders", "id")

	analyzer := NewAnalyzer(f.schema.Tables(schema.Natural), nil)
	matches := analyzer.TableMatches(analyzer.Prefixes())

	assert.Same(t, customers, matches["customer"])
	assert.Same(t, orders, matches["order"])
	assert.Same(t, orders, matches["crm_order"])
	assert.NotContains(t, matches, "")
}

func TestMatchKey(t *testing.T) {
	tests := map[string]string{
		"customer_id": "customer",
		"CustomerID":  "customer",
		"id":          "id",
		"ID":          "id",
		"name":        "name",
		"uid":         "u",
		"_id":         "_", // stripping "_id" would leave nothing
	}
	for name, want := range tests {
		assert.Equal(t, want, matchKey(name), name)
	}
}
