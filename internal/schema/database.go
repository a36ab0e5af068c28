package schema

// DatabaseInfo describes the database product a crawl ran against
type DatabaseInfo struct {
	ProductName    string
	ProductVersion string
	UserName       string
	// Properties holds additional server settings, when retrieved.
	Properties Attributes
}

// DriverInfo describes the driver used to talk to the database
type DriverInfo struct {
	DriverName    string
	DriverVersion string
	Properties    Attributes
}

// Database is the root of a crawled metadata graph
type Database struct {
	DatabaseInfo DatabaseInfo
	DriverInfo   DriverInfo

	catalogs         List[*Catalog]
	dataTypes        List[*ColumnDataType]
	weakAssociations []*WeakAssociation
}

// NewDatabase creates an empty graph.
func NewDatabase() *Database {
	return &Database{}
}

// AddCatalog adds or replaces a catalog.
func (d *Database) AddCatalog(catalog *Catalog) {
	d.catalogs.Add(catalog)
}

// Catalogs returns all catalogs.
func (d *Database) Catalogs(order Order) []*Catalog {
	return d.catalogs.Values(order)
}

// LookupCatalog finds a catalog by name.
func (d *Database) LookupCatalog(name string) (*Catalog, bool) {
	for _, catalog := range d.catalogs.objects {
		if catalog.Name() == name {
			return catalog, true
		}
	}
	return nil, false
}

// Schemas returns the schemas of every catalog.
func (d *Database) Schemas(order Order) []*Schema {
	var schemas []*Schema
	for _, catalog := range d.catalogs.objects {
		schemas = append(schemas, catalog.schemas.Values(order)...)
	}
	return Sort(schemas, order)
}

// LookupSchema finds a schema by full name.
func (d *Database) LookupSchema(fullName string) (*Schema, bool) {
	for _, catalog := range d.catalogs.objects {
		if s, ok := catalog.schemas.Lookup(fullName); ok {
			return s, true
		}
	}
	return nil, false
}

// Tables returns the tables of every schema. With Natural order, tables are
// listed in dependency order once sort indexes have been assigned.
func (d *Database) Tables(order Order) []*Table {
	var tables []*Table
	for _, s := range d.Schemas(order) {
		tables = append(tables, s.tables.Values(order)...)
	}
	return Sort(tables, order)
}

// LookupTable finds a table by full name.
func (d *Database) LookupTable(fullName string) (*Table, bool) {
	for _, s := range d.Schemas(Natural) {
		if t, ok := s.tables.Lookup(fullName); ok {
			return t, true
		}
	}
	return nil, false
}

// Procedures returns the procedures of every schema.
func (d *Database) Procedures(order Order) []*Procedure {
	var procedures []*Procedure
	for _, s := range d.Schemas(order) {
		procedures = append(procedures, s.procedures.Values(order)...)
	}
	return Sort(procedures, order)
}

// AddColumnDataType adds a system data type.
func (d *Database) AddColumnDataType(dataType *ColumnDataType) {
	d.dataTypes.Add(dataType)
}

// ColumnDataTypes returns the system data types.
func (d *Database) ColumnDataTypes(order Order) []*ColumnDataType {
	return d.dataTypes.Values(order)
}

// LookupColumnDataType resolves a type name, looking first in the given
// schema and then among the system types. The schema may be nil.
func (d *Database) LookupColumnDataType(s *Schema, name string) (*ColumnDataType, bool) {
	if s != nil {
		if dataType, ok := s.dataTypes.LookupIn(s, name); ok {
			return dataType, true
		}
	}
	return d.dataTypes.Lookup(name)
}

// AddWeakAssociation records an inferred relationship between two columns.
// The association is registered on both owning tables and in the global
// list. It reports false when the unordered pair is already known.
func (d *Database) AddWeakAssociation(foreignKeyColumn, primaryKeyColumn *Column) bool {
	association := &WeakAssociation{
		ForeignKeyColumn: foreignKeyColumn,
		PrimaryKeyColumn: primaryKeyColumn,
	}
	for _, existing := range d.weakAssociations {
		if existing.samePair(association) {
			return false
		}
	}
	d.weakAssociations = append(d.weakAssociations, association)
	foreignKeyColumn.table.addWeakAssociation(association)
	if primaryKeyColumn.table != foreignKeyColumn.table {
		primaryKeyColumn.table.addWeakAssociation(association)
	}
	return true
}

// WeakAssociations returns every inferred relationship in the order found.
func (d *Database) WeakAssociations() []*WeakAssociation {
	return append([]*WeakAssociation(nil), d.weakAssociations...)
}
