package snapshot

import (
	"time"

	"github.com/koba/dbcrawl/internal/schema"
)

// Column is a table column in a snapshot
type Column struct {
	Name          string  `json:"name"`
	Position      int     `json:"position"`
	Type          string  `json:"type"`
	TypeCode      int     `json:"type_code"`
	Size          int     `json:"size,omitempty"`
	DecimalDigits int     `json:"decimal_digits,omitempty"`
	Nullable      bool    `json:"nullable"`
	DefaultValue  *string `json:"default_value,omitempty"`
	AutoIncrement bool    `json:"auto_increment"`
	Generated     bool    `json:"generated,omitempty"`
	Remarks       string  `json:"remarks,omitempty"`

	PartOfPrimaryKey bool `json:"part_of_primary_key,omitempty"`
	PartOfForeignKey bool `json:"part_of_foreign_key,omitempty"`
}

// Index is an index or primary key in a snapshot
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Type    string   `json:"type,omitempty"`
}

// ForeignKey is a foreign key declared on a table
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          string   `json:"on_delete,omitempty"`
	OnUpdate          string   `json:"on_update,omitempty"`
}

// CheckConstraint is a table check constraint
type CheckConstraint struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Trigger is a table trigger
type Trigger struct {
	Name      string `json:"name"`
	Event     string `json:"event,omitempty"`
	Timing    string `json:"timing,omitempty"`
	Statement string `json:"statement,omitempty"`
}

// Table is a table or view in a snapshot
type Table struct {
	FullName         string            `json:"full_name"`
	Schema           string            `json:"schema"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Remarks          string            `json:"remarks,omitempty"`
	SortIndex        int               `json:"sort_index"`
	Definition       string            `json:"definition,omitempty"`
	Columns          []Column          `json:"columns"`
	PrimaryKey       *Index            `json:"primary_key,omitempty"`
	Indexes          []Index           `json:"indexes"`
	ForeignKeys      []ForeignKey      `json:"foreign_keys"`
	CheckConstraints []CheckConstraint `json:"check_constraints,omitempty"`
	Triggers         []Trigger         `json:"triggers,omitempty"`
}

// Parameter is a procedure parameter
type Parameter struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	Mode     string `json:"mode"`
	Type     string `json:"type"`
}

// Procedure is a stored procedure or function
type Procedure struct {
	FullName   string      `json:"full_name"`
	Schema     string      `json:"schema"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
	Definition string      `json:"definition,omitempty"`
}

// WeakAssociation is an inferred reference between two columns
type WeakAssociation struct {
	ForeignKeyColumn string `json:"foreign_key_column"`
	PrimaryKeyColumn string `json:"primary_key_column"`
}

// Document is a serializable copy of a crawled metadata graph
type Document struct {
	CreatedAt        time.Time
	InfoLevel        string
	ProductName      string
	ProductVersion   string
	DriverName       string
	DriverVersion    string
	Tables           []Table
	Procedures       []Procedure
	WeakAssociations []WeakAssociation
	Warnings         []string
}

// LookupTable finds a table by full name.
func (d *Document) LookupTable(fullName string) (*Table, bool) {
	for i := range d.Tables {
		if d.Tables[i].FullName == fullName {
			return &d.Tables[i], true
		}
	}
	return nil, false
}

// NewDocument copies db into a document. Tables, columns and the other
// children are listed in the given order.
func NewDocument(db *schema.Database, order schema.Order) *Document {
	doc := &Document{
		CreatedAt:      time.Now().UTC(),
		ProductName:    db.DatabaseInfo.ProductName,
		ProductVersion: db.DatabaseInfo.ProductVersion,
		DriverName:     db.DriverInfo.DriverName,
		DriverVersion:  db.DriverInfo.DriverVersion,
	}

	for _, t := range db.Tables(order) {
		doc.Tables = append(doc.Tables, newTable(t, order))
	}
	for _, p := range db.Procedures(order) {
		doc.Procedures = append(doc.Procedures, newProcedure(p, order))
	}
	for _, w := range db.WeakAssociations() {
		doc.WeakAssociations = append(doc.WeakAssociations, WeakAssociation{
			ForeignKeyColumn: w.ForeignKeyColumn.FullName(),
			PrimaryKeyColumn: w.PrimaryKeyColumn.FullName(),
		})
	}
	return doc
}

func newTable(t *schema.Table, order schema.Order) Table {
	table := Table{
		FullName:   t.FullName(),
		Schema:     t.Schema().FullName(),
		Name:       t.Name(),
		Type:       t.TableType(),
		Remarks:    t.Remarks,
		SortIndex:  t.SortIndex(),
		Definition: t.Definition(),
		// Empty rather than null in JSON
		Columns:     []Column{},
		Indexes:     []Index{},
		ForeignKeys: []ForeignKey{},
	}

	for _, c := range t.Columns(order) {
		column := Column{
			Name:          c.Name(),
			Position:      c.Ordinal,
			Size:          c.Size,
			DecimalDigits: c.DecimalDigits,
			Nullable:      c.Nullable,
			DefaultValue:  c.DefaultValue,
			AutoIncrement: c.AutoIncrement,
			Generated:     c.Generated,
			Remarks:       c.Remarks,
		}
		if c.DataType != nil {
			column.Type = c.DataType.Name()
			column.TypeCode = c.DataType.SQLType.Code
		}
		column.PartOfPrimaryKey = c.IsPartOfPrimaryKey()
		column.PartOfForeignKey = c.IsPartOfForeignKey()
		table.Columns = append(table.Columns, column)
	}

	if pk := t.PrimaryKey(); pk != nil {
		index := newIndex(&pk.Index)
		table.PrimaryKey = &index
	}
	for _, index := range t.Indexes(order) {
		table.Indexes = append(table.Indexes, newIndex(index))
	}

	for _, fk := range t.ImportedForeignKeys(order) {
		foreignKey := ForeignKey{
			Name:            fk.Name(),
			ReferencedTable: fk.PrimaryKeyTable().FullName(),
			OnDelete:        fk.DeleteRule,
			OnUpdate:        fk.UpdateRule,
		}
		for _, ref := range fk.ColumnReferences() {
			foreignKey.Columns = append(foreignKey.Columns, ref.ForeignKeyColumn.Name())
			foreignKey.ReferencedColumns = append(foreignKey.ReferencedColumns, ref.PrimaryKeyColumn.Name())
		}
		table.ForeignKeys = append(table.ForeignKeys, foreignKey)
	}

	for _, c := range t.CheckConstraints(order) {
		table.CheckConstraints = append(table.CheckConstraints, CheckConstraint{Name: c.Name(), Definition: c.Definition()})
	}
	for _, trigger := range t.Triggers(order) {
		table.Triggers = append(table.Triggers, Trigger{
			Name:      trigger.Name(),
			Event:     trigger.EventManipulation,
			Timing:    trigger.ActionTiming,
			Statement: trigger.ActionStatement(),
		})
	}
	return table
}

func newIndex(index *schema.Index) Index {
	result := Index{Name: index.Name(), Unique: index.Unique, Type: index.IndexType, Columns: []string{}}
	for _, c := range index.Columns() {
		result.Columns = append(result.Columns, c.Name())
	}
	return result
}

func newProcedure(p *schema.Procedure, order schema.Order) Procedure {
	procedure := Procedure{
		FullName:   p.FullName(),
		Schema:     p.Schema().FullName(),
		Name:       p.Name(),
		Type:       p.ProcedureType,
		Definition: p.Definition(),
		Parameters: []Parameter{},
	}
	for _, c := range p.Columns(order) {
		param := Parameter{Name: c.Name(), Position: c.Ordinal, Mode: c.ColumnType}
		if c.DataType != nil {
			param.Type = c.DataType.Name()
		}
		procedure.Parameters = append(procedure.Parameters, param)
	}
	return procedure
}
