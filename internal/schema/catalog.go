package schema

// Catalog groups schemas. Engines without catalogs use a catalog with an
// empty name.
type Catalog struct {
	namedObject
	schemas List[*Schema]
}

// NewCatalog creates a catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{namedObject: namedObject{name: name}}
}

// Parent implements NamedObject. Catalogs are roots.
func (c *Catalog) Parent() NamedObject {
	return nil
}

// FullName implements NamedObject.
func (c *Catalog) FullName() string {
	return c.name
}

// AddSchema adds or replaces a schema.
func (c *Catalog) AddSchema(s *Schema) {
	c.schemas.Add(s)
}

// Schemas returns the schemas of the catalog.
func (c *Catalog) Schemas(order Order) []*Schema {
	return c.schemas.Values(order)
}

// LookupSchema finds a schema by simple name.
func (c *Catalog) LookupSchema(name string) (*Schema, bool) {
	return c.schemas.LookupIn(c, name)
}
