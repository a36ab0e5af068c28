// Package associations infers relationships between tables that follow a
// naming convention but have no declared foreign key.
//
// A column named after another table, such as orders.customer_id next to a
// customers table, is proposed as a weak association to that table's primary
// key when the types agree. The result is a heuristic: irregular names are
// missed and coincidental names produce false matches.
package associations

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/schema"
)

// maxRankedPrefixes is the number of most used prefixes always kept.
const maxRankedPrefixes = 5

// Candidate is a proposed association from a referencing column to a
// primary key column.
type Candidate struct {
	ForeignKeyColumn *schema.Column
	PrimaryKeyColumn *schema.Column
}

// Analyzer looks for weak associations among a fixed list of tables. The
// order of the tables decides which table wins when two of them reduce to
// the same match name.
type Analyzer struct {
	tables []*schema.Table
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer over tables. A nil logger discards output.
func NewAnalyzer(tables []*schema.Table, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{tables: tables, logger: logger}
}

type prefixCount struct {
	prefix string
	count  int
}

// Prefixes returns the table name prefixes used to strip names before
// matching. The empty prefix is always last.
func (a *Analyzer) Prefixes() []string {
	names := make([]string, len(a.tables))
	for i, t := range a.tables {
		names[i] = strings.ToLower(t.Name())
	}

	counts := make(map[string]int)
	pairs := 0
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pairs++
			common := commonPrefix(names[i], names[j])
			if common == "" || !strings.HasSuffix(common, "_") {
				continue
			}
			for k := 0; k < len(common); k++ {
				if common[k] == '_' {
					counts[common[:k+1]]++
				}
			}
		}
	}

	candidates := make([]prefixCount, 0, len(counts))
	for prefix, count := range counts {
		candidates = append(candidates, prefixCount{prefix: prefix, count: count})
	}

	// Keep the shortest prefix of each family.
	var retained []prefixCount
	for _, c := range candidates {
		extended := false
		for _, other := range candidates {
			if len(other.prefix) < len(c.prefix) && strings.HasPrefix(c.prefix, other.prefix) {
				extended = true
				break
			}
		}
		if !extended {
			retained = append(retained, c)
		}
	}

	slices.SortFunc(retained, func(x, y prefixCount) int {
		if c := cmp.Compare(y.count, x.count); c != 0 {
			return c
		}
		return strings.Compare(x.prefix, y.prefix)
	})

	prefixes := make([]string, 0, len(retained)+1)
	for i, c := range retained {
		if i < maxRankedPrefixes || 2*c.count > pairs {
			prefixes = append(prefixes, c.prefix)
		}
	}
	prefixes = append(prefixes, "")
	return prefixes
}

// TableMatches maps singular table names, with each prefix stripped, to
// tables. Later tables replace earlier ones with the same match name.
func (a *Analyzer) TableMatches(prefixes []string) map[string]*schema.Table {
	matches := make(map[string]*schema.Table)
	for _, t := range a.tables {
		name := strings.ToLower(t.Name())
		for _, prefix := range prefixes {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			key := singular(name[len(prefix):])
			if key == "" {
				continue
			}
			matches[key] = t
		}
	}
	return matches
}

type columnMatch struct {
	key    string
	column *schema.Column
}

// columnMatches derives a match name for every column of t. Entries keep the
// position in which their key first appeared, and the last column wins.
func columnMatches(t *schema.Table) []columnMatch {
	var matches []columnMatch
	position := make(map[string]int)
	put := func(key string, column *schema.Column) {
		if i, ok := position[key]; ok {
			matches[i].column = column
			return
		}
		position[key] = len(matches)
		matches = append(matches, columnMatch{key: key, column: column})
	}

	if pk := singlePrimaryKeyColumn(t); pk != nil {
		put("id", pk)
	}
	for _, column := range t.Columns(schema.Natural) {
		put(matchKey(column.Name()), column)
	}
	return matches
}

// matchKey strips a trailing "_id", or failing that "id", from a column
// name. A suffix that would leave nothing is not stripped.
func matchKey(name string) string {
	key := strings.ToLower(name)
	for _, suffix := range []string{"_id", "id"} {
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return key[:len(key)-len(suffix)]
		}
	}
	return key
}

// Analyze returns the associations implied by the naming of the tables. It
// does not change the graph.
func (a *Analyzer) Analyze() []Candidate {
	prefixes := a.Prefixes()
	tableMatches := a.TableMatches(prefixes)
	a.logger.Debug("analyzing weak associations",
		zap.Int("tables", len(a.tables)),
		zap.Strings("prefixes", prefixes),
		zap.Int("table_matches", len(tableMatches)),
	)

	var candidates []Candidate
	seen := make(map[Candidate]bool)
	for _, t := range a.tables {
		for _, match := range columnMatches(t) {
			target, ok := tableMatches[match.key]
			if !ok || target == t {
				continue
			}
			fkColumn := match.column
			if declared(t, fkColumn, target) {
				continue
			}
			pkColumn := singlePrimaryKeyColumn(target)
			if pkColumn == nil || !sameType(fkColumn, pkColumn) {
				continue
			}
			candidate := Candidate{ForeignKeyColumn: fkColumn, PrimaryKeyColumn: pkColumn}
			if seen[candidate] {
				continue
			}
			seen[candidate] = true
			a.logger.Debug("found weak association",
				zap.String("foreign_key_column", fkColumn.FullName()),
				zap.String("primary_key_column", pkColumn.FullName()),
			)
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// Apply registers candidates on db and returns how many were new.
func Apply(db *schema.Database, candidates []Candidate) int {
	added := 0
	for _, c := range candidates {
		if db.AddWeakAssociation(c.ForeignKeyColumn, c.PrimaryKeyColumn) {
			added++
		}
	}
	return added
}

func declared(t *schema.Table, column *schema.Column, target *schema.Table) bool {
	for _, fk := range t.ImportedForeignKeys(schema.Natural) {
		if fk.References(column, target) {
			return true
		}
	}
	return false
}

func singlePrimaryKeyColumn(t *schema.Table) *schema.Column {
	pk := t.PrimaryKey()
	if pk == nil {
		return nil
	}
	columns := pk.Columns()
	if len(columns) != 1 {
		return nil
	}
	return columns[0].Column
}

func sameType(a, b *schema.Column) bool {
	codeA, okA := a.TypeCode()
	codeB, okB := b.TypeCode()
	return okA && okB && codeA == codeB
}

func singular(name string) string {
	if name == "" {
		return ""
	}
	return inflection.Singular(name)
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
