package crawl

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/graph"
	"github.com/koba/dbcrawl/internal/schema"
)

func (r *retrieval) retrieveTables() error {
	for _, s := range r.crawledSchemas() {
		rows, err := r.source.ListTables(schemaRef(s), r.opts.tableNamePattern, r.opts.tableTypes)
		if err != nil {
			return fmt.Errorf("schema %s: %w", s.FullName(), err)
		}
		for _, row := range rows {
			name := row.String("TABLE_NAME", "")
			if name == "" {
				continue
			}
			tableType := row.String("TABLE_TYPE", "TABLE")

			var t *schema.Table
			if strings.EqualFold(tableType, "view") {
				t = schema.NewView(s, name)
			} else {
				t = schema.NewTable(s, name)
				_ = t.SetTableType(tableType)
			}
			if !r.opts.tableRule.Test(t.FullName()) {
				r.logger.Debug("excluded table", zap.String("table", t.FullName()))
				continue
			}
			t.Remarks = row.String("REMARKS", "")
			r.addTable(s, t)
		}
	}
	return nil
}

// addTable registers a listed table. A name listed twice keeps the later
// row, in the position of the first.
func (r *retrieval) addTable(s *schema.Schema, t *schema.Table) {
	previous, ok := s.LookupTable(t.Name())
	s.AddTable(t)
	if ok {
		if i := slices.Index(r.tables, previous); i >= 0 {
			r.tables[i] = t
			return
		}
	}
	r.tables = append(r.tables, t)
}

func (r *retrieval) retrieveColumns() error {
	for _, t := range r.tables {
		rows, err := r.source.ListColumns(tableRef(t))
		if err != nil {
			return fmt.Errorf("table %s: %w", t.FullName(), err)
		}
		for i, row := range rows {
			name := row.String("COLUMN_NAME", "")
			if name == "" {
				continue
			}
			c := schema.NewColumn(t, name)
			if !r.opts.columnRule.Test(c.FullName()) {
				continue
			}
			c.Ordinal = row.Int("ORDINAL_POSITION", i+1)
			c.DataType = r.dataType(t.Schema(), row.String("TYPE_NAME", ""), row.Int("DATA_TYPE", schema.TypeOther))
			c.Size = row.Int("COLUMN_SIZE", 0)
			c.DecimalDigits = row.Int("DECIMAL_DIGITS", 0)
			c.Nullable = row.Bool("IS_NULLABLE", true)
			if row.Has("COLUMN_DEF") {
				def := row.String("COLUMN_DEF", "")
				c.DefaultValue = &def
			}
			c.AutoIncrement = row.Bool("IS_AUTOINCREMENT", false)
			c.Generated = row.Bool("IS_GENERATEDCOLUMN", false)
			c.Hidden = row.Bool("IS_HIDDEN", false)
			c.Remarks = row.String("REMARKS", "")
			t.AddColumn(c)
		}
	}
	return nil
}

func (r *retrieval) retrievePrimaryKeys() error {
	for _, t := range r.tables {
		if t.IsView() {
			continue
		}
		rows, err := r.source.ListPrimaryKey(tableRef(t))
		if err != nil {
			return fmt.Errorf("table %s: %w", t.FullName(), err)
		}
		if len(rows) == 0 {
			continue
		}

		name := rows[0].String("PK_NAME", "")
		if strings.TrimSpace(name) == "" {
			name = t.Name() + "_pkey"
		}
		pk := schema.NewPrimaryKey(t, name)
		for _, row := range rows {
			columnName := row.String("COLUMN_NAME", "")
			c, ok := t.LookupColumn(columnName)
			if !ok {
				r.unresolved(pk.FullName(), "column %q not found in %s", columnName, t.FullName())
				continue
			}
			pk.AddColumn(row.Int("KEY_SEQ", len(pk.Columns())+1), c, true)
		}
		if len(pk.Columns()) > 0 {
			t.SetPrimaryKey(pk)
		}
	}
	return nil
}

func (r *retrieval) retrieveIndexes() error {
	for _, t := range r.tables {
		if t.IsView() {
			continue
		}
		rows, err := r.source.ListIndexes(tableRef(t))
		if err != nil {
			return fmt.Errorf("table %s: %w", t.FullName(), err)
		}

		var indexes []*schema.Index
		for _, row := range rows {
			name := row.String("INDEX_NAME", "")
			// Statistics rows carry no index name
			if strings.TrimSpace(name) == "" {
				continue
			}
			index, ok := t.LookupIndex(name)
			if !ok {
				index = schema.NewIndex(t, name)
				index.Unique = !row.Bool("NON_UNIQUE", true)
				index.IndexType = row.String("TYPE", "")
				index.Cardinality = row.Int("CARDINALITY", 0)
				index.Pages = row.Int("PAGES", 0)
				if filter := row.String("FILTER_CONDITION", ""); filter != "" {
					index.Attributes.Set("filter_condition", filter)
				}
				t.AddIndex(index)
				indexes = append(indexes, index)
			}

			columnName := row.String("COLUMN_NAME", "")
			c, ok := t.LookupColumn(columnName)
			if !ok {
				r.unresolved(index.FullName(), "column %q not found in %s", columnName, t.FullName())
				continue
			}
			index.AddColumn(row.Int("ORDINAL_POSITION", len(index.Columns())+1), c, row.String("ASC_OR_DESC", "A") != "D")
		}
	}
	return nil
}

func (r *retrieval) retrieveForeignKeys() error {
	for _, t := range r.tables {
		if t.IsView() {
			continue
		}
		imported, err := r.source.ListImportedKeys(tableRef(t))
		if err != nil {
			return fmt.Errorf("table %s: %w", t.FullName(), err)
		}
		exported, err := r.source.ListExportedKeys(tableRef(t))
		if err != nil {
			return fmt.Errorf("table %s: %w", t.FullName(), err)
		}
		for _, group := range groupForeignKeyRows(imported) {
			r.addForeignKey(group)
		}
		for _, group := range groupForeignKeyRows(exported) {
			r.addForeignKey(group)
		}
	}
	return nil
}

// groupForeignKeyRows splits key rows into one group per foreign key. Named
// keys group by name. Unnamed keys start a new group whenever KEY_SEQ
// restarts at 1 or the tables change.
func groupForeignKeyRows(rows database.Rows) []database.Rows {
	var groups []database.Rows
	named := make(map[string]int)
	var prev database.Row

	for _, row := range rows {
		name := strings.TrimSpace(row.String("FK_NAME", ""))
		if name != "" {
			key := row.String("FKTABLE_CAT", "") + "\x00" + row.String("FKTABLE_SCHEM", "") + "\x00" +
				row.String("FKTABLE_NAME", "") + "\x00" + name
			if i, ok := named[key]; ok {
				groups[i] = append(groups[i], row)
			} else {
				named[key] = len(groups)
				groups = append(groups, database.Rows{row})
			}
			prev = nil
			continue
		}

		if prev == nil || row.Int("KEY_SEQ", 1) == 1 || !sameKeyTables(prev, row) {
			groups = append(groups, database.Rows{row})
		} else {
			groups[len(groups)-1] = append(groups[len(groups)-1], row)
		}
		prev = row
	}
	return groups
}

func sameKeyTables(a, b database.Row) bool {
	for _, col := range []string{"PKTABLE_SCHEM", "PKTABLE_NAME", "FKTABLE_SCHEM", "FKTABLE_NAME"} {
		if a.String(col, "") != b.String(col, "") {
			return false
		}
	}
	return true
}

type resolvedReference struct {
	keySequence int
	pkColumn    *schema.Column
	fkColumn    *schema.Column
}

// addForeignKey resolves one group of key rows and shares the foreign key
// between the referencing and the referenced table. A key listed from both
// ends is built once. Rows that do not resolve are reported once and left
// out; a key with no resolved rows is dropped.
func (r *retrieval) addForeignKey(rows database.Rows) {
	first := rows[0]
	name := strings.TrimSpace(first.String("FK_NAME", ""))

	var refs []resolvedReference
	for i, row := range rows {
		pkColumn, pkErr := r.lookupKeyColumn(row, "PK")
		fkColumn, fkErr := r.lookupKeyColumn(row, "FK")
		if err := errors.Join(pkErr, fkErr); err != nil {
			object := name
			if object == "" {
				object = row.String("FKTABLE_NAME", "")
			}
			if id := keyRowID(object, row); !r.unresolvedKeyRows[id] {
				r.unresolvedKeyRows[id] = true
				r.warn(UnresolvedReference, object, err)
			}
			continue
		}
		refs = append(refs, resolvedReference{
			keySequence: row.Int("KEY_SEQ", i+1),
			pkColumn:    pkColumn,
			fkColumn:    fkColumn,
		})
	}

	if len(refs) == 0 {
		return
	}

	fkTable := refs[0].fkColumn.Table()
	pkTable := refs[0].pkColumn.Table()
	if name == "" {
		name = syntheticForeignKeyName(fkTable, refs)
	}

	key := fkTable.FullName() + "\x00" + name
	if _, ok := r.foreignKeys[key]; ok {
		return
	}

	fk := schema.NewForeignKey(fkTable, name)
	fk.UpdateRule = first.String("UPDATE_RULE", "")
	fk.DeleteRule = first.String("DELETE_RULE", "")
	fk.Deferrability = first.String("DEFERRABILITY", "")
	for _, ref := range refs {
		fk.AddColumnReference(ref.keySequence, ref.pkColumn, ref.fkColumn)
		ref.fkColumn.ReferencedColumn = ref.pkColumn
	}

	r.foreignKeys[key] = fk
	fkTable.AddForeignKey(fk)
	if pkTable != fkTable {
		pkTable.AddForeignKey(fk)
	}
}

// keyRowID identifies a key row across the imported and exported listings
func keyRowID(object string, row database.Row) string {
	parts := []string{object}
	for _, side := range []string{"PK", "FK"} {
		for _, col := range []string{"TABLE_CAT", "TABLE_SCHEM", "TABLE_NAME", "COLUMN_NAME"} {
			parts = append(parts, row.String(side+col, ""))
		}
	}
	return strings.Join(parts, "\x00")
}

// lookupKeyColumn finds the PK or FK side column of a key row
func (r *retrieval) lookupKeyColumn(row database.Row, side string) (*schema.Column, error) {
	catalog := row.String(side+"TABLE_CAT", "")
	schemaName := row.String(side+"TABLE_SCHEM", "")
	tableName := row.String(side+"TABLE_NAME", "")
	columnName := row.String(side+"COLUMN_NAME", "")

	t, ok := r.lookupTable(catalog, schemaName, tableName)
	if !ok {
		return nil, fmt.Errorf("table %q not crawled", strings.Trim(schemaName+"."+tableName, "."))
	}
	c, ok := t.LookupColumn(columnName)
	if !ok {
		return nil, fmt.Errorf("column %q not found in %s", columnName, t.FullName())
	}
	return c, nil
}

// syntheticForeignKeyName names an unnamed key after its referencing
// columns, the way PostgreSQL names keys by default.
func syntheticForeignKeyName(fkTable *schema.Table, refs []resolvedReference) string {
	parts := []string{fkTable.Name()}
	for _, ref := range refs {
		parts = append(parts, ref.fkColumn.Name())
	}
	return strings.Join(parts, "_") + "_fkey"
}

// sortTables folds matching indexes into primary keys and numbers the
// tables in foreign key dependency order. Referenced tables come first.
// Keys to tables outside the crawl are not followed.
func (r *retrieval) sortTables() error {
	g := graph.NewDirected[*schema.Table]()
	crawled := make(map[*schema.Table]bool, len(r.tables))
	for _, t := range r.tables {
		t.ReplacePrimaryKey()
		g.AddVertex(t)
		crawled[t] = true
	}
	for _, t := range r.tables {
		for _, fk := range t.ImportedForeignKeys(schema.Natural) {
			if crawled[fk.PrimaryKeyTable()] {
				g.AddEdge(fk.PrimaryKeyTable(), fk.ForeignKeyTable())
			}
		}
	}

	sorted, err := g.TopologicalSort(func(a, b *schema.Table) int {
		return schema.Compare(schema.Alphabetical, a, b)
	})
	if err != nil {
		if errors.Is(err, graph.ErrCycle) {
			r.logger.Warn("foreign keys form a cycle, tables keep name order")
			for _, t := range r.tables {
				t.SetSortIndex(0)
			}
		}
		return err
	}
	for i, t := range sorted {
		t.SetSortIndex(i)
	}
	return nil
}
