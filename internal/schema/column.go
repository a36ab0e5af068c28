package schema

import "cmp"

// Column is a table column
type Column struct {
	namedObject
	table *Table

	Ordinal       int
	DataType      *ColumnDataType
	Size          int
	DecimalDigits int
	Nullable      bool
	DefaultValue  *string
	AutoIncrement bool
	Generated     bool
	Hidden        bool
	// ReferencedColumn is the primary key column this column refers to
	// through a declared foreign key.
	ReferencedColumn *Column

	privileges List[*Privilege]
}

// NewColumn creates a column owned by t.
func NewColumn(t *Table, name string) *Column {
	return &Column{namedObject: namedObject{name: name}, table: t, Nullable: true}
}

// Table returns the owning table.
func (c *Column) Table() *Table {
	return c.table
}

// Parent implements NamedObject.
func (c *Column) Parent() NamedObject {
	if c.table == nil {
		return nil
	}
	return c.table
}

// FullName implements NamedObject.
func (c *Column) FullName() string {
	return FullName(c)
}

func (c *Column) compareNatural(other NamedObject) int {
	if o, ok := other.(*Column); ok {
		return cmp.Compare(c.Ordinal, o.Ordinal)
	}
	return 0
}

// TypeCode returns the generic type code of the column, and false when the
// data type is unknown.
func (c *Column) TypeCode() (int, bool) {
	if c.DataType == nil {
		return 0, false
	}
	return c.DataType.SQLType.Code, true
}

// IsPartOfPrimaryKey reports whether the column belongs to the primary key of
// its table.
func (c *Column) IsPartOfPrimaryKey() bool {
	if c.table == nil || c.table.primaryKey == nil {
		return false
	}
	return c.table.primaryKey.hasColumn(c)
}

// IsPartOfForeignKey reports whether the column is on the referencing side
// of a declared foreign key.
func (c *Column) IsPartOfForeignKey() bool {
	if c.table == nil {
		return false
	}
	for _, fk := range c.table.foreignKeys.objects {
		for _, ref := range fk.columnReferences {
			if ref.ForeignKeyColumn == c {
				return true
			}
		}
	}
	return false
}

// AddPrivilege adds or replaces a column privilege.
func (c *Column) AddPrivilege(p *Privilege) {
	c.privileges.Add(p)
}

// Privileges returns the privileges granted on the column.
func (c *Column) Privileges(order Order) []*Privilege {
	return c.privileges.Values(order)
}

// LookupPrivilege finds a column privilege by name.
func (c *Column) LookupPrivilege(name string) (*Privilege, bool) {
	return c.privileges.LookupIn(c, name)
}
