package schema

import (
	"cmp"
	"strings"
)

// Procedure is a stored procedure or function
type Procedure struct {
	namedObject
	schema     *Schema
	definition strings.Builder
	columns    List[*ProcedureColumn]

	// ProcedureType is "procedure", "function" or "unknown".
	ProcedureType string
	// SpecificName distinguishes overloads.
	SpecificName string
}

// NewProcedure creates a procedure owned by s.
func NewProcedure(s *Schema, name string) *Procedure {
	return &Procedure{namedObject: namedObject{name: name}, schema: s, ProcedureType: "unknown"}
}

// Schema returns the owning schema.
func (p *Procedure) Schema() *Schema {
	return p.schema
}

// Parent implements NamedObject.
func (p *Procedure) Parent() NamedObject {
	if p.schema == nil {
		return nil
	}
	return p.schema
}

// FullName implements NamedObject.
func (p *Procedure) FullName() string {
	return FullName(p)
}

// Definition returns the procedure body, if retrieved.
func (p *Procedure) Definition() string {
	return p.definition.String()
}

// AppendDefinition adds text to the procedure body.
func (p *Procedure) AppendDefinition(text string) {
	p.definition.WriteString(text)
}

// AddColumn adds or replaces a parameter or result column.
func (p *Procedure) AddColumn(c *ProcedureColumn) {
	p.columns.Add(c)
}

// Columns returns the parameters and result columns.
func (p *Procedure) Columns(order Order) []*ProcedureColumn {
	return p.columns.Values(order)
}

// LookupColumn finds a parameter by simple name.
func (p *Procedure) LookupColumn(name string) (*ProcedureColumn, bool) {
	return p.columns.LookupIn(p, name)
}

// ProcedureColumn is a procedure parameter or result column
type ProcedureColumn struct {
	namedObject
	procedure *Procedure

	Ordinal int
	// ColumnType is "in", "inout", "out", "return", "result" or "unknown".
	ColumnType    string
	DataType      *ColumnDataType
	Size          int
	DecimalDigits int
	Nullable      bool
}

// NewProcedureColumn creates a parameter owned by p.
func NewProcedureColumn(p *Procedure, name string) *ProcedureColumn {
	return &ProcedureColumn{namedObject: namedObject{name: name}, procedure: p, ColumnType: "unknown", Nullable: true}
}

// Parent implements NamedObject.
func (c *ProcedureColumn) Parent() NamedObject {
	if c.procedure == nil {
		return nil
	}
	return c.procedure
}

// FullName implements NamedObject.
func (c *ProcedureColumn) FullName() string {
	return FullName(c)
}

func (c *ProcedureColumn) compareNatural(other NamedObject) int {
	if o, ok := other.(*ProcedureColumn); ok {
		return cmp.Compare(c.Ordinal, o.Ordinal)
	}
	return 0
}
