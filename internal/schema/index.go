package schema

// IndexColumn is a column as it takes part in an index
type IndexColumn struct {
	*Column
	// Position is the 1-based position within the index.
	Position  int
	Ascending bool
}

// Index is a table index
type Index struct {
	namedObject
	table   *Table
	columns []IndexColumn

	Unique      bool
	IndexType   string
	Cardinality int
	Pages       int
	Definition  string
}

// NewIndex creates an index owned by t.
func NewIndex(t *Table, name string) *Index {
	return &Index{namedObject: namedObject{name: name}, table: t}
}

// Table returns the owning table.
func (i *Index) Table() *Table {
	return i.table
}

// Parent implements NamedObject.
func (i *Index) Parent() NamedObject {
	if i.table == nil {
		return nil
	}
	return i.table
}

// FullName implements NamedObject.
func (i *Index) FullName() string {
	return FullName(i)
}

func (i *Index) compareNatural(other NamedObject) int {
	var theirs []string
	switch o := other.(type) {
	case *Index:
		theirs = o.columnNames()
	case *PrimaryKey:
		theirs = o.columnNames()
	default:
		return 0
	}
	return compareSignatures(i.columnNames(), theirs)
}

// AddColumn inserts a column at a 1-based position. Positions outside the
// current range are clamped, and positions are renumbered afterwards.
func (i *Index) AddColumn(position int, column *Column, ascending bool) {
	index := clampPosition(position, len(i.columns))
	ic := IndexColumn{Column: column, Ascending: ascending}
	i.columns = append(i.columns, IndexColumn{})
	copy(i.columns[index+1:], i.columns[index:])
	i.columns[index] = ic
	for n := range i.columns {
		i.columns[n].Position = n + 1
	}
}

// Columns returns the columns in index order.
func (i *Index) Columns() []IndexColumn {
	return append([]IndexColumn(nil), i.columns...)
}

func (i *Index) columnNames() []string {
	names := make([]string, len(i.columns))
	for n, ic := range i.columns {
		names[n] = ic.FullName()
	}
	return names
}

func (i *Index) hasColumn(c *Column) bool {
	for _, ic := range i.columns {
		if ic.Column == c {
			return true
		}
	}
	return false
}

// PrimaryKey is the primary key of a table
type PrimaryKey struct {
	Index
}

// NewPrimaryKey creates a primary key owned by t.
func NewPrimaryKey(t *Table, name string) *PrimaryKey {
	return &PrimaryKey{Index: Index{namedObject: namedObject{name: name}, table: t, Unique: true}}
}

func primaryKeyFromIndex(index *Index) *PrimaryKey {
	pk := &PrimaryKey{Index: *index}
	pk.columns = append([]IndexColumn(nil), index.columns...)
	pk.Unique = true
	return pk
}

// FullName implements NamedObject.
func (pk *PrimaryKey) FullName() string {
	return FullName(pk)
}

// clampPosition converts a 1-based position into a slice index within
// [0, length].
func clampPosition(position, length int) int {
	switch {
	case position < 1:
		return 0
	case position > length+1:
		return length
	default:
		return position - 1
	}
}
