package schema

import (
	"cmp"
	"errors"
	"strings"
)

// ErrInvalidViewType is returned when a view is given a table type other
// than "view".
var ErrInvalidViewType = errors.New("a view can only have table type \"view\"")

// TableRelationship selects the direction of a foreign key relationship
type TableRelationship int

const (
	// Parent tables hold the primary keys referenced by this table.
	Parent TableRelationship = iota
	// Child tables hold foreign keys referencing this table.
	Child
)

// Table is a base table or a view
type Table struct {
	namedObject
	schema     *Schema
	tableType  string
	view       bool
	definition strings.Builder
	sortIndex  int

	columns          List[*Column]
	primaryKey       *PrimaryKey
	indexes          List[*Index]
	foreignKeys      List[*ForeignKey]
	checkConstraints List[*CheckConstraint]
	triggers         List[*Trigger]
	privileges       List[*Privilege]
	weakAssociations []*WeakAssociation
}

// NewTable creates a base table owned by s.
func NewTable(s *Schema, name string) *Table {
	return &Table{
		namedObject: namedObject{name: name},
		schema:      s,
		tableType:   "TABLE",
	}
}

// NewView creates a view owned by s.
func NewView(s *Schema, name string) *Table {
	return &Table{
		namedObject: namedObject{name: name},
		schema:      s,
		tableType:   "VIEW",
		view:        true,
	}
}

// Schema returns the owning schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Parent implements NamedObject.
func (t *Table) Parent() NamedObject {
	if t.schema == nil {
		return nil
	}
	return t.schema
}

// FullName implements NamedObject.
func (t *Table) FullName() string {
	return FullName(t)
}

func (t *Table) compareNatural(other NamedObject) int {
	if o, ok := other.(*Table); ok {
		return cmp.Compare(t.sortIndex, o.sortIndex)
	}
	return 0
}

// IsView reports whether the table is a view.
func (t *Table) IsView() bool {
	return t.view
}

// TableType returns the type reported by the database, such as "TABLE".
func (t *Table) TableType() string {
	return t.tableType
}

// SetTableType sets the table type. Views only accept "view".
func (t *Table) SetTableType(tableType string) error {
	if t.view {
		if !strings.EqualFold(tableType, "view") {
			return ErrInvalidViewType
		}
		t.tableType = "VIEW"
		return nil
	}
	t.tableType = tableType
	return nil
}

// Definition returns the view or table definition text, if retrieved.
func (t *Table) Definition() string {
	return t.definition.String()
}

// AppendDefinition adds text to the definition. Long definitions arrive in
// several rows.
func (t *Table) AppendDefinition(text string) {
	t.definition.WriteString(text)
}

// SortIndex returns the position of the table in dependency order.
func (t *Table) SortIndex() int {
	return t.sortIndex
}

// SetSortIndex records the position of the table in dependency order.
func (t *Table) SetSortIndex(index int) {
	t.sortIndex = index
}

// AddColumn adds or replaces a column.
func (t *Table) AddColumn(c *Column) {
	t.columns.Add(c)
}

// Columns returns the columns of the table.
func (t *Table) Columns(order Order) []*Column {
	return t.columns.Values(order)
}

// LookupColumn finds a column by simple name.
func (t *Table) LookupColumn(name string) (*Column, bool) {
	return t.columns.LookupIn(t, name)
}

// PrimaryKey returns the primary key, or nil.
func (t *Table) PrimaryKey() *PrimaryKey {
	return t.primaryKey
}

// SetPrimaryKey sets the primary key.
func (t *Table) SetPrimaryKey(pk *PrimaryKey) {
	t.primaryKey = pk
}

// AddIndex adds or replaces an index.
func (t *Table) AddIndex(index *Index) {
	t.indexes.Add(index)
}

// Indexes returns the indexes of the table.
func (t *Table) Indexes(order Order) []*Index {
	return t.indexes.Values(order)
}

// LookupIndex finds an index by simple name.
func (t *Table) LookupIndex(name string) (*Index, bool) {
	return t.indexes.LookupIn(t, name)
}

// ReplacePrimaryKey drops the index that duplicates the primary key and
// rebuilds the primary key from it, so that index details such as
// cardinality and sort direction are kept.
func (t *Table) ReplacePrimaryKey() {
	if t.primaryKey == nil {
		return
	}
	index, ok := t.indexes.LookupIn(t, t.primaryKey.Name())
	if !ok {
		return
	}
	if compareSignatures(index.columnNames(), t.primaryKey.columnNames()) != 0 {
		return
	}
	t.indexes.Remove(index)
	t.primaryKey = primaryKeyFromIndex(index)
}

// AddForeignKey adds or replaces a foreign key. Foreign keys are shared by
// the referencing and the referenced table, so the crawler calls this on
// both.
func (t *Table) AddForeignKey(fk *ForeignKey) {
	t.foreignKeys.Add(fk)
}

// ForeignKeys returns every foreign key that involves the table.
func (t *Table) ForeignKeys(order Order) []*ForeignKey {
	return t.foreignKeys.Values(order)
}

// LookupForeignKey finds a foreign key by simple name.
func (t *Table) LookupForeignKey(name string) (*ForeignKey, bool) {
	if isBlank(name) {
		return nil, false
	}
	for _, fk := range t.foreignKeys.objects {
		if fk.Name() == name {
			return fk, true
		}
	}
	return nil, false
}

// ImportedForeignKeys returns the foreign keys whose columns belong to this
// table.
func (t *Table) ImportedForeignKeys(order Order) []*ForeignKey {
	var imported []*ForeignKey
	for _, fk := range t.foreignKeys.Values(order) {
		if fk.ForeignKeyTable() == t {
			imported = append(imported, fk)
		}
	}
	return imported
}

// ExportedForeignKeys returns the foreign keys that reference this table.
func (t *Table) ExportedForeignKeys(order Order) []*ForeignKey {
	var exported []*ForeignKey
	for _, fk := range t.foreignKeys.Values(order) {
		if fk.PrimaryKeyTable() == t {
			exported = append(exported, fk)
		}
	}
	return exported
}

// RelatedTables returns the tables connected to this one by a foreign key,
// in the given direction.
func (t *Table) RelatedTables(relationship TableRelationship) []*Table {
	var related List[*Table]
	for _, fk := range t.foreignKeys.objects {
		for _, ref := range fk.columnReferences {
			pkTable := ref.PrimaryKeyColumn.table
			fkTable := ref.ForeignKeyColumn.table
			switch {
			case relationship == Parent && fkTable == t && pkTable != t:
				related.Add(pkTable)
			case relationship == Child && pkTable == t && fkTable != t:
				related.Add(fkTable)
			}
		}
	}
	return related.Values(Natural)
}

// AddCheckConstraint adds or replaces a check constraint.
func (t *Table) AddCheckConstraint(c *CheckConstraint) {
	t.checkConstraints.Add(c)
}

// CheckConstraints returns the check constraints of the table.
func (t *Table) CheckConstraints(order Order) []*CheckConstraint {
	return t.checkConstraints.Values(order)
}

// LookupCheckConstraint finds a check constraint by simple name.
func (t *Table) LookupCheckConstraint(name string) (*CheckConstraint, bool) {
	return t.checkConstraints.LookupIn(t, name)
}

// AddTrigger adds or replaces a trigger.
func (t *Table) AddTrigger(trigger *Trigger) {
	t.triggers.Add(trigger)
}

// Triggers returns the triggers of the table.
func (t *Table) Triggers(order Order) []*Trigger {
	return t.triggers.Values(order)
}

// LookupTrigger finds a trigger by simple name.
func (t *Table) LookupTrigger(name string) (*Trigger, bool) {
	return t.triggers.LookupIn(t, name)
}

// AddPrivilege adds or replaces a privilege.
func (t *Table) AddPrivilege(p *Privilege) {
	t.privileges.Add(p)
}

// Privileges returns the privileges granted on the table.
func (t *Table) Privileges(order Order) []*Privilege {
	return t.privileges.Values(order)
}

// LookupPrivilege finds a privilege by name, such as "SELECT".
func (t *Table) LookupPrivilege(name string) (*Privilege, bool) {
	return t.privileges.LookupIn(t, name)
}

// WeakAssociations returns the inferred relationships involving the table.
func (t *Table) WeakAssociations() []*WeakAssociation {
	return append([]*WeakAssociation(nil), t.weakAssociations...)
}

func (t *Table) addWeakAssociation(association *WeakAssociation) {
	for _, existing := range t.weakAssociations {
		if existing.samePair(association) {
			return
		}
	}
	t.weakAssociations = append(t.weakAssociations, association)
}
