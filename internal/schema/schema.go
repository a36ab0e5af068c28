package schema

// Schema owns tables, procedures and user defined types
type Schema struct {
	namedObject
	catalog *Catalog

	tables     List[*Table]
	procedures List[*Procedure]
	dataTypes  List[*ColumnDataType]
}

// NewSchema creates a schema owned by catalog.
func NewSchema(catalog *Catalog, name string) *Schema {
	return &Schema{namedObject: namedObject{name: name}, catalog: catalog}
}

// Catalog returns the owning catalog.
func (s *Schema) Catalog() *Catalog {
	return s.catalog
}

// Parent implements NamedObject.
func (s *Schema) Parent() NamedObject {
	if s.catalog == nil {
		return nil
	}
	return s.catalog
}

// FullName implements NamedObject.
func (s *Schema) FullName() string {
	return FullName(s)
}

// AddTable adds or replaces a table.
func (s *Schema) AddTable(t *Table) {
	s.tables.Add(t)
}

// RemoveTable removes a table, reporting whether it was present.
func (s *Schema) RemoveTable(t *Table) bool {
	return s.tables.Remove(t)
}

// Tables returns the tables of the schema.
func (s *Schema) Tables(order Order) []*Table {
	return s.tables.Values(order)
}

// LookupTable finds a table by simple name.
func (s *Schema) LookupTable(name string) (*Table, bool) {
	return s.tables.LookupIn(s, name)
}

// AddProcedure adds or replaces a procedure.
func (s *Schema) AddProcedure(p *Procedure) {
	s.procedures.Add(p)
}

// Procedures returns the procedures of the schema.
func (s *Schema) Procedures(order Order) []*Procedure {
	return s.procedures.Values(order)
}

// LookupProcedure finds a procedure by simple name.
func (s *Schema) LookupProcedure(name string) (*Procedure, bool) {
	return s.procedures.LookupIn(s, name)
}

// AddColumnDataType adds a user defined type.
func (s *Schema) AddColumnDataType(dataType *ColumnDataType) {
	s.dataTypes.Add(dataType)
}

// ColumnDataTypes returns the user defined types of the schema.
func (s *Schema) ColumnDataTypes(order Order) []*ColumnDataType {
	return s.dataTypes.Values(order)
}
