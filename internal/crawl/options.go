package crawl

import (
	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/filter"
	"github.com/koba/dbcrawl/internal/infolevel"
)

// Option configures a crawl.
type Option func(*options)

type options struct {
	level               *infolevel.Level
	schemaRule          *filter.Rule
	tableRule           *filter.Rule
	columnRule          *filter.Rule
	procedureRule       *filter.Rule
	procedureColumnRule *filter.Rule
	tableNamePattern    string
	tableTypes          []string
	logger              *zap.Logger

	// nil grep rules are not tested
	grepColumnRule     *filter.Rule
	grepDefinitionRule *filter.Rule
	grepInvert         bool
	parentTableDepth   int
	childTableDepth    int
}

func defaultOptions() *options {
	return &options{
		level:               infolevel.Standard(),
		schemaRule:          filter.IncludeAll(),
		tableRule:           filter.IncludeAll(),
		columnRule:          filter.IncludeAll(),
		procedureRule:       filter.IncludeAll(),
		procedureColumnRule: filter.IncludeAll(),
		logger:              zap.NewNop(),
	}
}

// WithInfoLevel selects which retrievals run. Defaults to the verbose preset.
func WithInfoLevel(level *infolevel.Level) Option {
	return func(o *options) {
		if level != nil {
			o.level = level
		}
	}
}

// WithSchemaRule filters schemas by full name.
func WithSchemaRule(rule *filter.Rule) Option {
	return func(o *options) {
		if rule != nil {
			o.schemaRule = rule
		}
	}
}

// WithTableRule filters tables by full name.
func WithTableRule(rule *filter.Rule) Option {
	return func(o *options) {
		if rule != nil {
			o.tableRule = rule
		}
	}
}

// WithColumnRule filters table columns by full name.
func WithColumnRule(rule *filter.Rule) Option {
	return func(o *options) {
		if rule != nil {
			o.columnRule = rule
		}
	}
}

// WithProcedureRule filters procedures by full name.
func WithProcedureRule(rule *filter.Rule) Option {
	return func(o *options) {
		if rule != nil {
			o.procedureRule = rule
		}
	}
}

// WithProcedureColumnRule filters procedure parameters by full name.
func WithProcedureColumnRule(rule *filter.Rule) Option {
	return func(o *options) {
		if rule != nil {
			o.procedureColumnRule = rule
		}
	}
}

// WithTableNamePattern narrows the tables listed by the database, using SQL
// LIKE syntax on the simple table name. The table rule still applies.
func WithTableNamePattern(pattern string) Option {
	return func(o *options) {
		o.tableNamePattern = pattern
	}
}

// WithTableTypes limits tables to the given types, such as "TABLE" and
// "VIEW". No types means all.
func WithTableTypes(types ...string) Option {
	return func(o *options) {
		o.tableTypes = types
	}
}

// WithGrepColumns keeps only the tables with a column whose full name
// passes rule, plus their related tables.
func WithGrepColumns(rule *filter.Rule) Option {
	return func(o *options) {
		o.grepColumnRule = rule
	}
}

// WithGrepDefinitions keeps only the tables whose remarks, column remarks,
// view definition or trigger bodies pass rule, plus their related tables.
func WithGrepDefinitions(rule *filter.Rule) Option {
	return func(o *options) {
		o.grepDefinitionRule = rule
	}
}

// WithGrepInvert keeps the tables that do not match the grep rules instead.
func WithGrepInvert(invert bool) Option {
	return func(o *options) {
		o.grepInvert = invert
	}
}

// WithParentTableDepth also keeps the tables referenced by matching tables,
// following foreign keys up to depth steps.
func WithParentTableDepth(depth int) Option {
	return func(o *options) {
		o.parentTableDepth = max(depth, 0)
	}
}

// WithChildTableDepth also keeps the tables referencing matching tables,
// following foreign keys up to depth steps.
func WithChildTableDepth(depth int) Option {
	return func(o *options) {
		o.childTableDepth = max(depth, 0)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
