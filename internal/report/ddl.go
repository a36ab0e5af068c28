package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/koba/dbcrawl/internal/snapshot"
)

// DDLWriter renders a snapshot as CREATE statements
type DDLWriter struct {
	dbType string
}

// NewDDLWriter creates a DDL writer quoting identifiers for dbType. An empty
// dbType is taken from the product name of the document being written.
func NewDDLWriter(dbType string) *DDLWriter {
	return &DDLWriter{dbType: strings.ToLower(dbType)}
}

// WriteDDL writes the tables, indexes and views of doc as CREATE statements
func WriteDDL(w io.Writer, doc *snapshot.Document, dbType string) {
	io.WriteString(w, NewDDLWriter(dbType).Generate(doc))
}

// Generate returns one statement per table, index and view, in the stored
// table order. Foreign keys are declared inline, so dependency order keeps
// the script runnable.
func (g *DDLWriter) Generate(doc *snapshot.Document) string {
	if g.dbType == "" {
		g = NewDDLWriter(doc.ProductName)
	}

	var statements []string
	for i := range doc.Tables {
		table := &doc.Tables[i]
		if strings.EqualFold(table.Type, "VIEW") {
			statements = append(statements, g.generateCreateView(table))
			continue
		}
		statements = append(statements, g.generateCreateTable(doc, table))
		for _, idx := range table.Indexes {
			statements = append(statements, g.generateCreateIndex(table.Name, &idx))
		}
	}

	if len(statements) == 0 {
		return ""
	}
	return strings.Join(statements, "\n\n") + "\n"
}

func (g *DDLWriter) generateCreateTable(doc *snapshot.Document, table *snapshot.Table) string {
	var parts []string

	// Column definitions
	for _, col := range table.Columns {
		parts = append(parts, g.columnDefinition(&col))
	}

	// Primary key
	if pk := table.PrimaryKey; pk != nil && len(pk.Columns) > 0 {
		pkCols := strings.Join(g.quoteIdentifiers(pk.Columns), ", ")
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", g.quoteIdentifier(pk.Name), pkCols))
	}

	// Foreign keys
	for _, fk := range table.ForeignKeys {
		fkDef := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			g.quoteIdentifier(fk.Name),
			strings.Join(g.quoteIdentifiers(fk.Columns), ", "),
			g.quoteIdentifier(referencedName(doc, fk.ReferencedTable)),
			strings.Join(g.quoteIdentifiers(fk.ReferencedColumns), ", "),
		)
		if fk.OnDelete != "" && fk.OnDelete != "NO ACTION" {
			fkDef += fmt.Sprintf(" ON DELETE %s", fk.OnDelete)
		}
		if fk.OnUpdate != "" && fk.OnUpdate != "NO ACTION" {
			fkDef += fmt.Sprintf(" ON UPDATE %s", fk.OnUpdate)
		}
		parts = append(parts, fkDef)
	}

	// Check constraints
	for _, check := range table.CheckConstraints {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s CHECK (%s)", g.quoteIdentifier(check.Name), check.Definition))
	}

	tableName := g.quoteIdentifier(table.Name)
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", tableName, strings.Join(parts, ",\n  "))
}

func (g *DDLWriter) generateCreateIndex(tableName string, idx *snapshot.Index) string {
	indexType := ""
	if idx.Unique {
		indexType = "UNIQUE "
	}

	columns := strings.Join(g.quoteIdentifiers(idx.Columns), ", ")
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		indexType,
		g.quoteIdentifier(idx.Name),
		g.quoteIdentifier(tableName),
		columns,
	)
}

func (g *DDLWriter) generateCreateView(view *snapshot.Table) string {
	definition := strings.TrimSuffix(strings.TrimSpace(view.Definition), ";")
	if definition == "" {
		return fmt.Sprintf("-- view %s: definition not retrieved", g.quoteIdentifier(view.Name))
	}
	// SQLite stores the whole statement
	if strings.HasPrefix(strings.ToUpper(definition), "CREATE ") {
		return definition + ";"
	}
	return fmt.Sprintf("CREATE VIEW %s AS\n%s;", g.quoteIdentifier(view.Name), definition)
}

func (g *DDLWriter) columnDefinition(col *snapshot.Column) string {
	def := g.quoteIdentifier(col.Name) + " " + typeName(col)

	if !col.Nullable {
		def += " NOT NULL"
	}

	if col.DefaultValue != nil {
		def += fmt.Sprintf(" DEFAULT %s", *col.DefaultValue)
	}

	// PostgreSQL carries it in the nextval default, SQLite in INTEGER PRIMARY KEY
	if col.AutoIncrement && g.isMySQL() {
		def += " AUTO_INCREMENT"
	}

	return def
}

func (g *DDLWriter) isMySQL() bool {
	return strings.Contains(g.dbType, "mysql") || strings.Contains(g.dbType, "mariadb")
}

func (g *DDLWriter) quoteIdentifier(name string) string {
	if g.isMySQL() {
		return fmt.Sprintf("`%s`", name)
	}
	return fmt.Sprintf("\"%s\"", name)
}

func (g *DDLWriter) quoteIdentifiers(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = g.quoteIdentifier(name)
	}
	return quoted
}

// referencedName resolves a full table name to the bare name used in
// statements, falling back to the last name segment for tables outside doc
func referencedName(doc *snapshot.Document, fullName string) string {
	if table, ok := doc.LookupTable(fullName); ok {
		return table.Name
	}
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
