package schema

import "strings"

// CheckConstraint is a table check constraint
type CheckConstraint struct {
	namedObject
	table      *Table
	definition strings.Builder

	Deferrable        bool
	InitiallyDeferred bool
}

// NewCheckConstraint creates a check constraint owned by t.
func NewCheckConstraint(t *Table, name string) *CheckConstraint {
	return &CheckConstraint{namedObject: namedObject{name: name}, table: t}
}

// Parent implements NamedObject.
func (c *CheckConstraint) Parent() NamedObject {
	if c.table == nil {
		return nil
	}
	return c.table
}

// FullName implements NamedObject.
func (c *CheckConstraint) FullName() string {
	return FullName(c)
}

// Definition returns the constraint clause.
func (c *CheckConstraint) Definition() string {
	return c.definition.String()
}

// AppendDefinition adds text to the constraint clause.
func (c *CheckConstraint) AppendDefinition(text string) {
	c.definition.WriteString(text)
}
