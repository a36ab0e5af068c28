package schema

// ColumnReference pairs a referencing column with the column it refers to
type ColumnReference struct {
	// KeySequence is the 1-based position within the foreign key.
	KeySequence      int
	PrimaryKeyColumn *Column
	ForeignKeyColumn *Column
}

// ForeignKey is a declared relationship between two tables. It is owned by
// the referencing table.
type ForeignKey struct {
	namedObject
	table            *Table
	columnReferences []*ColumnReference

	UpdateRule    string
	DeleteRule    string
	Deferrability string
}

// NewForeignKey creates a foreign key owned by the referencing table t.
func NewForeignKey(t *Table, name string) *ForeignKey {
	return &ForeignKey{namedObject: namedObject{name: name}, table: t}
}

// Parent implements NamedObject.
func (fk *ForeignKey) Parent() NamedObject {
	if fk.table == nil {
		return nil
	}
	return fk.table
}

// FullName implements NamedObject.
func (fk *ForeignKey) FullName() string {
	return FullName(fk)
}

func (fk *ForeignKey) compareNatural(other NamedObject) int {
	if o, ok := other.(*ForeignKey); ok {
		return compareSignatures(fk.signature(), o.signature())
	}
	return 0
}

// AddColumnReference inserts a column pair at a 1-based key sequence.
// Out of range positions are clamped and sequences are renumbered. A pair
// that is already present is ignored.
func (fk *ForeignKey) AddColumnReference(keySequence int, primaryKeyColumn, foreignKeyColumn *Column) {
	for _, ref := range fk.columnReferences {
		if ref.PrimaryKeyColumn == primaryKeyColumn && ref.ForeignKeyColumn == foreignKeyColumn {
			return
		}
	}
	index := clampPosition(keySequence, len(fk.columnReferences))
	fk.columnReferences = append(fk.columnReferences, nil)
	copy(fk.columnReferences[index+1:], fk.columnReferences[index:])
	fk.columnReferences[index] = &ColumnReference{
		PrimaryKeyColumn: primaryKeyColumn,
		ForeignKeyColumn: foreignKeyColumn,
	}
	for n, ref := range fk.columnReferences {
		ref.KeySequence = n + 1
	}
}

// ColumnReferences returns the column pairs in key sequence order.
func (fk *ForeignKey) ColumnReferences() []*ColumnReference {
	return append([]*ColumnReference(nil), fk.columnReferences...)
}

// PrimaryKeyTable returns the referenced table, or nil when the foreign key
// has no columns.
func (fk *ForeignKey) PrimaryKeyTable() *Table {
	if len(fk.columnReferences) == 0 {
		return nil
	}
	return fk.columnReferences[0].PrimaryKeyColumn.table
}

// ForeignKeyTable returns the referencing table.
func (fk *ForeignKey) ForeignKeyTable() *Table {
	if len(fk.columnReferences) == 0 {
		return fk.table
	}
	return fk.columnReferences[0].ForeignKeyColumn.table
}

// References reports whether the foreign key connects column to a column of
// target.
func (fk *ForeignKey) References(column *Column, target *Table) bool {
	for _, ref := range fk.columnReferences {
		if ref.ForeignKeyColumn == column && ref.PrimaryKeyColumn.table == target {
			return true
		}
	}
	return false
}

func (fk *ForeignKey) signature() []string {
	names := make([]string, 0, 2*len(fk.columnReferences))
	for _, ref := range fk.columnReferences {
		names = append(names, ref.ForeignKeyColumn.FullName(), ref.PrimaryKeyColumn.FullName())
	}
	return names
}
