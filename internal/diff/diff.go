// Package diff compares the structure of two snapshots.
package diff

import (
	"fmt"
	"io"

	"github.com/koba/dbcrawl/internal/snapshot"
)

// Result holds the complete comparison result. Table diffs follow the
// table order of the new snapshot, then dropped tables in their old order.
type Result struct {
	TableDiffs              []*TableDiff
	AddedWeakAssociations   []snapshot.WeakAssociation
	RemovedWeakAssociations []snapshot.WeakAssociation
}

// Empty reports whether the snapshots have the same structure.
func (r *Result) Empty() bool {
	return len(r.TableDiffs) == 0 && len(r.AddedWeakAssociations) == 0 && len(r.RemovedWeakAssociations) == 0
}

// Compare compares two snapshots and returns the differences
func Compare(old, new *snapshot.Document) *Result {
	result := &Result{}

	tableName := func(t *snapshot.Table) string { return t.FullName }
	// Tables present in both are compared element by element below
	unresolved := func(a, b *snapshot.Table) bool { return false }
	for _, c := range compareNamed(old.Tables, new.Tables, tableName, unresolved) {
		switch c.action {
		case ActionAdd:
			result.TableDiffs = append(result.TableDiffs, &TableDiff{TableName: c.name, Action: ActionAdd, NewTable: c.new})
		case ActionDrop:
			result.TableDiffs = append(result.TableDiffs, &TableDiff{TableName: c.name, Action: ActionDrop, OldTable: c.old})
		default:
			if tableDiff := compareTables(c.old, c.new); tableDiff != nil {
				result.TableDiffs = append(result.TableDiffs, tableDiff)
			}
		}
	}

	oldWeak := make(map[snapshot.WeakAssociation]bool)
	for _, w := range old.WeakAssociations {
		oldWeak[w] = true
	}
	newWeak := make(map[snapshot.WeakAssociation]bool)
	for _, w := range new.WeakAssociations {
		newWeak[w] = true
		if !oldWeak[w] {
			result.AddedWeakAssociations = append(result.AddedWeakAssociations, w)
		}
	}
	for _, w := range old.WeakAssociations {
		if !newWeak[w] {
			result.RemovedWeakAssociations = append(result.RemovedWeakAssociations, w)
		}
	}

	return result
}

// Display prints the diff result in a human-readable format
func Display(w io.Writer, result *Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return
	}

	if len(result.TableDiffs) > 0 {
		fmt.Fprintln(w, "=== Schema Differences ===")
		fmt.Fprintln(w)
		for _, tableDiff := range result.TableDiffs {
			displayTableDiff(w, tableDiff)
		}
	}

	if len(result.AddedWeakAssociations) > 0 || len(result.RemovedWeakAssociations) > 0 {
		fmt.Fprintln(w, "=== Weak Associations ===")
		fmt.Fprintln(w)
		for _, a := range result.AddedWeakAssociations {
			fmt.Fprintf(w, "  + %s -> %s\n", a.ForeignKeyColumn, a.PrimaryKeyColumn)
		}
		for _, a := range result.RemovedWeakAssociations {
			fmt.Fprintf(w, "  - %s -> %s\n", a.ForeignKeyColumn, a.PrimaryKeyColumn)
		}
		fmt.Fprintln(w)
	}
}

func displayTableDiff(w io.Writer, diff *TableDiff) {
	fmt.Fprintf(w, "Table: %s\n", diff.TableName)

	switch diff.Action {
	case ActionAdd:
		fmt.Fprintf(w, "  Action: ADD (new %s)\n", kind(diff.NewTable))
		fmt.Fprintf(w, "  Columns: %d\n", len(diff.NewTable.Columns))
	case ActionDrop:
		fmt.Fprintf(w, "  Action: DROP (removed %s)\n", kind(diff.OldTable))
	case ActionModify:
		fmt.Fprintf(w, "  Action: MODIFY\n")
		if len(diff.ColumnChanges) > 0 {
			fmt.Fprintf(w, "  Column changes:\n")
			for _, change := range diff.ColumnChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.ColumnName, change.Action)
			}
		}
		if len(diff.IndexChanges) > 0 {
			fmt.Fprintf(w, "  Index changes:\n")
			for _, change := range diff.IndexChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.IndexName, change.Action)
			}
		}
		if len(diff.ForeignKeyChanges) > 0 {
			fmt.Fprintf(w, "  Foreign key changes:\n")
			for _, change := range diff.ForeignKeyChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.FKName, change.Action)
			}
		}
	}
	fmt.Fprintln(w)
}

func kind(t *snapshot.Table) string {
	if t.Type == "VIEW" {
		return "view"
	}
	return "table"
}
