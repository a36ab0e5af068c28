package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// AuxiliaryQuery names a query that fills in detail the listing calls do not
// cover. The crawler matches the returned rows to tables by name.
type AuxiliaryQuery string

const (
	// CheckConstraints returns TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME,
	// CONSTRAINT_NAME and CHECK_CLAUSE.
	CheckConstraints AuxiliaryQuery = "check_constraints"
	// Triggers returns TRIGGER_CATALOG, TRIGGER_SCHEMA, TRIGGER_NAME,
	// EVENT_OBJECT_CATALOG, EVENT_OBJECT_SCHEMA, EVENT_OBJECT_TABLE,
	// EVENT_MANIPULATION, ACTION_ORDER, ACTION_CONDITION, ACTION_STATEMENT,
	// ACTION_ORIENTATION and ACTION_TIMING.
	Triggers AuxiliaryQuery = "triggers"
	// ViewDefinitions returns TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME and
	// VIEW_DEFINITION.
	ViewDefinitions AuxiliaryQuery = "view_definitions"
	// TablePrivileges returns TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME,
	// GRANTOR, GRANTEE, PRIVILEGE_TYPE and IS_GRANTABLE.
	TablePrivileges AuxiliaryQuery = "table_privileges"
	// ColumnPrivileges returns the table privilege columns plus COLUMN_NAME.
	ColumnPrivileges AuxiliaryQuery = "column_privileges"
	// AdditionalTableAttributes returns TABLE_CATALOG, TABLE_SCHEMA,
	// TABLE_NAME and any number of attribute columns.
	AdditionalTableAttributes AuxiliaryQuery = "additional_table_attributes"
	// AdditionalColumnAttributes returns TABLE_CATALOG, TABLE_SCHEMA,
	// TABLE_NAME, COLUMN_NAME and any number of attribute columns.
	AdditionalColumnAttributes AuxiliaryQuery = "additional_column_attributes"
	// ProcedureDefinitions returns ROUTINE_CATALOG, ROUTINE_SCHEMA,
	// ROUTINE_NAME, SPECIFIC_NAME and ROUTINE_DEFINITION.
	ProcedureDefinitions AuxiliaryQuery = "procedure_definitions"
)

// AuxiliaryQueries returns every known query name.
func AuxiliaryQueries() []AuxiliaryQuery {
	return []AuxiliaryQuery{
		CheckConstraints,
		Triggers,
		ViewDefinitions,
		TablePrivileges,
		ColumnPrivileges,
		AdditionalTableAttributes,
		AdditionalColumnAttributes,
		ProcedureDefinitions,
	}
}

// sqlSource holds what every database/sql based engine shares
type sqlSource struct {
	db      *sql.DB
	queries map[AuxiliaryQuery]string
}

func newSQLSource(defaults map[AuxiliaryQuery]string, overrides map[string]string) sqlSource {
	queries := make(map[AuxiliaryQuery]string, len(defaults)+len(overrides))
	for name, query := range defaults {
		queries[name] = query
	}
	for name, query := range overrides {
		queries[AuxiliaryQuery(strings.ToLower(name))] = query
	}
	return sqlSource{queries: queries}
}

// Close closes the connection
func (s *sqlSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Auxiliary runs a named query
func (s *sqlSource) Auxiliary(q AuxiliaryQuery) (Rows, error) {
	query := strings.TrimSpace(s.queries[q])
	if query == "" {
		return nil, fmt.Errorf("%s: %w", q, ErrUnsupported)
	}
	rows, err := s.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s query: %w", q, err)
	}
	return rows, nil
}

func (s *sqlSource) query(query string, args ...any) (Rows, error) {
	if s.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	return queryRows(s.db, query, args...)
}

// withDataTypes adds a DATA_TYPE code derived from TYPE_NAME where the
// engine did not report one.
func withDataTypes(rows Rows) Rows {
	for _, row := range rows {
		if !row.Has("DATA_TYPE") {
			row["DATA_TYPE"] = TypeCode(row.String("TYPE_NAME", ""))
		}
	}
	return rows
}

// likePattern turns an empty table name pattern into one that matches all.
func likePattern(pattern string) string {
	if strings.TrimSpace(pattern) == "" {
		return "%"
	}
	return pattern
}

// filterTableTypes keeps rows whose TABLE_TYPE is one of types. An empty
// list keeps everything.
func filterTableTypes(rows Rows, types []string) Rows {
	if len(types) == 0 {
		return rows
	}
	var kept Rows
	for _, row := range rows {
		tableType := row.String("TABLE_TYPE", "")
		for _, t := range types {
			if strings.EqualFold(t, tableType) {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
