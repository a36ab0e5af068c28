package schema

import "strings"

// Trigger is a table trigger
type Trigger struct {
	namedObject
	table           *Table
	actionStatement strings.Builder

	// EventManipulation is the triggering event: INSERT, UPDATE or DELETE.
	EventManipulation string
	// ActionTiming is BEFORE, AFTER or INSTEAD OF.
	ActionTiming string
	// ActionOrientation is ROW or STATEMENT.
	ActionOrientation string
	ActionCondition   string
	ActionOrder       int
}

// NewTrigger creates a trigger owned by t.
func NewTrigger(t *Table, name string) *Trigger {
	return &Trigger{namedObject: namedObject{name: name}, table: t}
}

// Parent implements NamedObject.
func (t *Trigger) Parent() NamedObject {
	if t.table == nil {
		return nil
	}
	return t.table
}

// FullName implements NamedObject.
func (t *Trigger) FullName() string {
	return FullName(t)
}

// ActionStatement returns the trigger body.
func (t *Trigger) ActionStatement() string {
	return t.actionStatement.String()
}

// AppendActionStatement adds text to the trigger body.
func (t *Trigger) AppendActionStatement(text string) {
	t.actionStatement.WriteString(text)
}
