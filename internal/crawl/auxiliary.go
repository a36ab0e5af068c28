package crawl

import (
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/schema"
)

// auxiliary runs a database wide query. Rows for tables outside the crawl
// are expected and dropped by the callers.
func (r *retrieval) auxiliary(q database.AuxiliaryQuery) (database.Rows, error) {
	rows, err := r.source.Auxiliary(q)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("ran auxiliary query", zap.String("query", string(q)), zap.Int("rows", len(rows)))
	return rows, nil
}

func (r *retrieval) retrieveCheckConstraints() error {
	rows, err := r.auxiliary(database.CheckConstraints)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok {
			continue
		}
		name := row.String("CONSTRAINT_NAME", "")
		if name == "" {
			continue
		}
		constraint, ok := t.LookupCheckConstraint(name)
		if !ok {
			constraint = schema.NewCheckConstraint(t, name)
			constraint.Deferrable = row.Bool("IS_DEFERRABLE", false)
			constraint.InitiallyDeferred = row.Bool("INITIALLY_DEFERRED", false)
			t.AddCheckConstraint(constraint)
		}
		constraint.AppendDefinition(row.String("CHECK_CLAUSE", ""))
	}
	return nil
}

func (r *retrieval) retrieveTriggers() error {
	rows, err := r.auxiliary(database.Triggers)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "EVENT_OBJECT")
		if !ok {
			continue
		}
		name := row.String("TRIGGER_NAME", "")
		if name == "" {
			continue
		}

		event := row.String("EVENT_MANIPULATION", "")
		// One row per event for triggers that fire on several
		if trigger, ok := t.LookupTrigger(name); ok {
			if event != "" && !strings.Contains(trigger.EventManipulation, event) {
				trigger.EventManipulation += ", " + event
			}
			continue
		}

		trigger := schema.NewTrigger(t, name)
		trigger.EventManipulation = event
		trigger.ActionTiming = row.String("ACTION_TIMING", "")
		trigger.ActionOrientation = row.String("ACTION_ORIENTATION", "")
		trigger.ActionCondition = row.String("ACTION_CONDITION", "")
		trigger.ActionOrder = row.Int("ACTION_ORDER", 0)
		trigger.AppendActionStatement(row.String("ACTION_STATEMENT", ""))
		t.AddTrigger(trigger)
	}
	return nil
}

func (r *retrieval) retrieveViewDefinitions() error {
	rows, err := r.auxiliary(database.ViewDefinitions)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok || !t.IsView() {
			continue
		}
		t.AppendDefinition(row.String("VIEW_DEFINITION", ""))
	}
	return nil
}

func (r *retrieval) retrieveTablePrivileges() error {
	rows, err := r.auxiliary(database.TablePrivileges)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok {
			continue
		}
		name := row.String("PRIVILEGE_TYPE", "")
		if name == "" {
			continue
		}
		privilege, ok := t.LookupPrivilege(name)
		if !ok {
			privilege = schema.NewPrivilege(t, name)
			t.AddPrivilege(privilege)
		}
		privilege.AddGrant(grant(row))
	}
	return nil
}

func (r *retrieval) retrieveColumnPrivileges() error {
	rows, err := r.auxiliary(database.ColumnPrivileges)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok {
			continue
		}
		name := row.String("PRIVILEGE_TYPE", "")
		if name == "" {
			continue
		}
		columnName := row.String("COLUMN_NAME", "")
		c, ok := t.LookupColumn(columnName)
		if !ok {
			r.unresolved(t.FullName(), "column %q not found for privilege %s", columnName, name)
			continue
		}
		privilege, ok := c.LookupPrivilege(name)
		if !ok {
			privilege = schema.NewPrivilege(c, name)
			c.AddPrivilege(privilege)
		}
		privilege.AddGrant(grant(row))
	}
	return nil
}

func grant(row database.Row) schema.Grant {
	return schema.Grant{
		Grantor:   row.String("GRANTOR", ""),
		Grantee:   row.String("GRANTEE", ""),
		Grantable: row.Bool("IS_GRANTABLE", false),
	}
}

var tableKeyColumns = map[string]bool{
	"TABLE_CATALOG": true,
	"TABLE_SCHEMA":  true,
	"TABLE_NAME":    true,
}

func (r *retrieval) retrieveAdditionalTableAttributes() error {
	rows, err := r.auxiliary(database.AdditionalTableAttributes)
	if err != nil {
		return err
	}
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok {
			continue
		}
		setAttributes(&t.Attributes, row, tableKeyColumns)
	}
	return nil
}

func (r *retrieval) retrieveAdditionalColumnAttributes() error {
	rows, err := r.auxiliary(database.AdditionalColumnAttributes)
	if err != nil {
		return err
	}
	keyColumns := maps.Clone(tableKeyColumns)
	keyColumns["COLUMN_NAME"] = true
	for _, row := range rows {
		t, ok := r.lookupAuxiliaryTable(row, "TABLE")
		if !ok {
			continue
		}
		columnName := row.String("COLUMN_NAME", "")
		c, ok := t.LookupColumn(columnName)
		if !ok {
			r.unresolved(t.FullName(), "column %q not found for attributes", columnName)
			continue
		}
		setAttributes(&c.Attributes, row, keyColumns)
	}
	return nil
}

// setAttributes copies every non key column of row, in name order
func setAttributes(attributes *schema.Attributes, row database.Row, skip map[string]bool) {
	for _, key := range slices.Sorted(maps.Keys(row)) {
		if skip[key] || row[key] == nil {
			continue
		}
		attributes.Set(strings.ToLower(key), row[key])
	}
}
