package schema

// ColumnDataType describes a database type. System types have no schema;
// user defined types belong to the schema they were declared in.
type ColumnDataType struct {
	namedObject
	schema *Schema

	// SQLType is the generic type the native type maps to.
	SQLType SQLType
	// UserDefined is set for domains, enums and other declared types.
	UserDefined bool
	// BaseType is the underlying type of a user defined type, if known.
	BaseType *ColumnDataType
	// Precision is the maximum size or precision the type supports.
	Precision int
	// Nullable reports whether columns of this type may hold NULL.
	Nullable bool
	// AutoIncrementable reports whether the type can generate values.
	AutoIncrementable bool
	// CreateParameters lists the parameters used when declaring the type.
	CreateParameters string
}

// NewColumnDataType creates a type. Pass a nil schema for a system type.
func NewColumnDataType(schema *Schema, name string, sqlType SQLType) *ColumnDataType {
	return &ColumnDataType{
		namedObject: namedObject{name: name},
		schema:      schema,
		SQLType:     sqlType,
		Nullable:    true,
	}
}

// Schema returns the declaring schema, or nil for a system type.
func (d *ColumnDataType) Schema() *Schema {
	return d.schema
}

// Parent implements NamedObject.
func (d *ColumnDataType) Parent() NamedObject {
	if d.schema == nil {
		return nil
	}
	return d.schema
}

// FullName implements NamedObject.
func (d *ColumnDataType) FullName() string {
	return FullName(d)
}
