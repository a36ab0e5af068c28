package diff

import (
	"slices"

	"github.com/koba/dbcrawl/internal/snapshot"
)

// Action represents the type of change
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDrop   Action = "DROP"
	ActionModify Action = "MODIFY"
)

// TableDiff represents the differences of one table
type TableDiff struct {
	TableName         string
	Action            Action
	OldTable          *snapshot.Table
	NewTable          *snapshot.Table
	ColumnChanges     []ColumnChange
	IndexChanges      []IndexChange
	ForeignKeyChanges []ForeignKeyChange
}

// ColumnChange represents a change to a column
type ColumnChange struct {
	ColumnName string
	Action     Action
	OldColumn  *snapshot.Column
	NewColumn  *snapshot.Column
}

// IndexChange represents a change to an index or primary key
type IndexChange struct {
	IndexName string
	Action    Action
	OldIndex  *snapshot.Index
	NewIndex  *snapshot.Index
}

// ForeignKeyChange represents a change to a foreign key
type ForeignKeyChange struct {
	FKName        string
	Action        Action
	OldForeignKey *snapshot.ForeignKey
	NewForeignKey *snapshot.ForeignKey
}

// change pairs the old and new version of a named element
type change[T any] struct {
	name   string
	action Action
	old    *T
	new    *T
}

// compareNamed matches elements by name. Changes follow the order of the new
// elements, then dropped elements in their old order.
func compareNamed[T any](old, new []T, name func(*T) string, equal func(a, b *T) bool) []change[T] {
	oldByName := make(map[string]*T, len(old))
	for i := range old {
		oldByName[name(&old[i])] = &old[i]
	}
	newNames := make(map[string]bool, len(new))

	var changes []change[T]
	for i := range new {
		n := name(&new[i])
		newNames[n] = true
		oldElem, exists := oldByName[n]
		if !exists {
			changes = append(changes, change[T]{name: n, action: ActionAdd, new: &new[i]})
			continue
		}
		if !equal(oldElem, &new[i]) {
			changes = append(changes, change[T]{name: n, action: ActionModify, old: oldElem, new: &new[i]})
		}
	}
	for i := range old {
		if n := name(&old[i]); !newNames[n] {
			changes = append(changes, change[T]{name: n, action: ActionDrop, old: &old[i]})
		}
	}
	return changes
}

// compareTables compares two versions of a table
func compareTables(old, new *snapshot.Table) *TableDiff {
	diff := &TableDiff{
		TableName: new.FullName,
		Action:    ActionModify,
		OldTable:  old,
		NewTable:  new,
	}

	columnName := func(c *snapshot.Column) string { return c.Name }
	for _, c := range compareNamed(old.Columns, new.Columns, columnName, columnsEqual) {
		diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
			ColumnName: c.name,
			Action:     c.action,
			OldColumn:  c.old,
			NewColumn:  c.new,
		})
	}

	indexName := func(i *snapshot.Index) string { return i.Name }
	for _, c := range compareNamed(indexesOf(old), indexesOf(new), indexName, indexesEqual) {
		diff.IndexChanges = append(diff.IndexChanges, IndexChange{
			IndexName: c.name,
			Action:    c.action,
			OldIndex:  c.old,
			NewIndex:  c.new,
		})
	}

	fkName := func(fk *snapshot.ForeignKey) string { return fk.Name }
	for _, c := range compareNamed(old.ForeignKeys, new.ForeignKeys, fkName, foreignKeysEqual) {
		diff.ForeignKeyChanges = append(diff.ForeignKeyChanges, ForeignKeyChange{
			FKName:        c.name,
			Action:        c.action,
			OldForeignKey: c.old,
			NewForeignKey: c.new,
		})
	}

	// Return nil if no changes
	if len(diff.ColumnChanges) == 0 && len(diff.IndexChanges) == 0 && len(diff.ForeignKeyChanges) == 0 {
		return nil
	}
	return diff
}

// indexesOf lists the primary key first, then the other indexes
func indexesOf(t *snapshot.Table) []snapshot.Index {
	var indexes []snapshot.Index
	if t.PrimaryKey != nil {
		indexes = append(indexes, *t.PrimaryKey)
	}
	return append(indexes, t.Indexes...)
}

func columnsEqual(a, b *snapshot.Column) bool {
	if a.Name != b.Name || a.Type != b.Type || a.Size != b.Size || a.DecimalDigits != b.DecimalDigits ||
		a.Nullable != b.Nullable || a.AutoIncrement != b.AutoIncrement {
		return false
	}

	// Compare default values
	if (a.DefaultValue == nil) != (b.DefaultValue == nil) {
		return false
	}
	if a.DefaultValue != nil && b.DefaultValue != nil && *a.DefaultValue != *b.DefaultValue {
		return false
	}

	return true
}

func indexesEqual(a, b *snapshot.Index) bool {
	return a.Name == b.Name && a.Unique == b.Unique && slices.Equal(a.Columns, b.Columns)
}

func foreignKeysEqual(a, b *snapshot.ForeignKey) bool {
	return a.Name == b.Name &&
		a.ReferencedTable == b.ReferencedTable &&
		slices.Equal(a.Columns, b.Columns) &&
		slices.Equal(a.ReferencedColumns, b.ReferencedColumns) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}
