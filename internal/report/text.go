// Package report renders snapshot documents for people to read.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/koba/dbcrawl/internal/snapshot"
)

// WriteText prints an outline of doc. Tables appear in the order they were
// stored, which is dependency order unless the crawl sorted alphabetically.
func WriteText(w io.Writer, doc *snapshot.Document) {
	fmt.Fprintf(w, "Database: %s\n", join(doc.ProductName, doc.ProductVersion))
	if doc.DriverName != "" {
		fmt.Fprintf(w, "Driver: %s\n", join(doc.DriverName, doc.DriverVersion))
	}
	if doc.InfoLevel != "" {
		fmt.Fprintf(w, "Info level: %s\n", doc.InfoLevel)
	}
	if !doc.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Crawled at: %s\n", doc.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintln(w)

	schema := ""
	for i := range doc.Tables {
		table := &doc.Tables[i]
		if table.Schema != schema {
			schema = table.Schema
			fmt.Fprintf(w, "=== Schema %s ===\n\n", schema)
		}
		writeTable(w, table)
	}

	if len(doc.Procedures) > 0 {
		fmt.Fprintln(w, "=== Procedures ===")
		fmt.Fprintln(w)
		for _, p := range doc.Procedures {
			fmt.Fprintf(w, "%s [%s]\n", p.FullName, kindOf(p.Type, "procedure"))
			for _, param := range p.Parameters {
				fmt.Fprintf(w, "  %d %s %s %s\n", param.Position, param.Mode, param.Name, param.Type)
			}
			fmt.Fprintln(w)
		}
	}

	if len(doc.WeakAssociations) > 0 {
		fmt.Fprintln(w, "=== Weak Associations ===")
		fmt.Fprintln(w)
		for _, a := range doc.WeakAssociations {
			fmt.Fprintf(w, "  %s -> %s\n", a.ForeignKeyColumn, a.PrimaryKeyColumn)
		}
		fmt.Fprintln(w)
	}

	if len(doc.Warnings) > 0 {
		fmt.Fprintln(w, "=== Warnings ===")
		fmt.Fprintln(w)
		for _, warning := range doc.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
		fmt.Fprintln(w)
	}
}

func writeTable(w io.Writer, table *snapshot.Table) {
	fmt.Fprintf(w, "%s [%s]\n", table.FullName, kindOf(table.Type, "table"))
	if table.Remarks != "" {
		fmt.Fprintf(w, "  -- %s\n", table.Remarks)
	}

	for _, c := range table.Columns {
		fmt.Fprintf(w, "  %s %s\n", c.Name, columnDescription(&c))
	}

	if pk := table.PrimaryKey; pk != nil {
		fmt.Fprintf(w, "  primary key %s (%s)\n", pk.Name, strings.Join(pk.Columns, ", "))
	}
	for _, index := range table.Indexes {
		unique := ""
		if index.Unique {
			unique = "unique "
		}
		fmt.Fprintf(w, "  %sindex %s (%s)\n", unique, index.Name, strings.Join(index.Columns, ", "))
	}
	for _, fk := range table.ForeignKeys {
		fmt.Fprintf(w, "  foreign key %s (%s) -> %s (%s)\n",
			fk.Name,
			strings.Join(fk.Columns, ", "),
			fk.ReferencedTable,
			strings.Join(fk.ReferencedColumns, ", "),
		)
	}
	for _, check := range table.CheckConstraints {
		fmt.Fprintf(w, "  check %s %s\n", check.Name, check.Definition)
	}
	for _, trigger := range table.Triggers {
		fmt.Fprintf(w, "  trigger %s %s\n", trigger.Name, strings.ToLower(join(trigger.Timing, trigger.Event)))
	}
	if table.Definition != "" {
		fmt.Fprintf(w, "  definition %s\n", strings.TrimSpace(table.Definition))
	}
	fmt.Fprintln(w)
}

// columnDescription describes the type and constraints of a column
func columnDescription(c *snapshot.Column) string {
	desc := typeName(c)
	if !c.Nullable {
		desc += " not null"
	}
	if c.DefaultValue != nil {
		desc += " default " + *c.DefaultValue
	}
	if c.AutoIncrement {
		desc += " auto-incremented"
	}
	if c.Generated {
		desc += " generated"
	}
	return desc
}

// typeName adds the width of character and decimal types
func typeName(c *snapshot.Column) string {
	lower := strings.ToLower(c.Type)
	switch {
	case c.Size <= 0, strings.Contains(c.Type, "("):
		return c.Type
	case strings.Contains(lower, "char"):
		return fmt.Sprintf("%s(%d)", c.Type, c.Size)
	case strings.Contains(lower, "numeric"), strings.Contains(lower, "decimal"):
		return fmt.Sprintf("%s(%d, %d)", c.Type, c.Size, c.DecimalDigits)
	default:
		return c.Type
	}
}

func kindOf(kind, fallback string) string {
	if kind == "" {
		return fallback
	}
	return strings.ToLower(kind)
}

func join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
