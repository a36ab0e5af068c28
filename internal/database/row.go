package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Row represents a single result row keyed by upper cased column name
type Row map[string]any

// Rows is a sequence of result rows
type Rows []Row

// Has reports whether the column is present and not NULL.
func (r Row) Has(column string) bool {
	v, ok := r[strings.ToUpper(column)]
	return ok && v != nil
}

// String returns a column as text, or def when absent or NULL.
func (r Row) String(column, def string) string {
	v, ok := r[strings.ToUpper(column)]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Int returns a column as an integer, or def when absent, NULL or not
// numeric.
func (r Row) Int(column string, def int) int {
	v, ok := r[strings.ToUpper(column)]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string, []byte:
		n, err := strconv.Atoi(strings.TrimSpace(r.String(column, "")))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Bool returns a column as a boolean. Text values such as "YES", "Y", "TRUE"
// and "1" are true; absent or unrecognized values give def.
func (r Row) Bool(column string, def bool) bool {
	v, ok := r[strings.ToUpper(column)]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string, []byte:
		switch strings.ToUpper(strings.TrimSpace(r.String(column, ""))) {
		case "YES", "Y", "TRUE", "T", "1":
			return true
		case "NO", "N", "FALSE", "F", "0":
			return false
		default:
			return def
		}
	default:
		return r.Int(column, 0) != 0
	}
}

// queryRows runs a query and collects every row, upper casing the column
// names.
func queryRows(db *sql.DB, query string, args ...any) (Rows, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var data Rows
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[strings.ToUpper(col)] = string(b)
			} else {
				row[strings.ToUpper(col)] = val
			}
		}

		data = append(data, row)
	}

	return data, rows.Err()
}
