package crawl

import (
	"errors"

	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/graph"
	"github.com/koba/dbcrawl/internal/infolevel"
	"github.com/koba/dbcrawl/internal/schema"
)

// grepping reports whether a grep rule was configured
func (o *options) grepping() bool {
	return o.grepColumnRule != nil || o.grepDefinitionRule != nil
}

// filterTables keeps the tables that match the grep rules, together with the
// tables related to them up to the parent and child depths. Every other
// table is dropped from its schema. Foreign keys of kept tables still refer
// to dropped tables.
func (r *retrieval) filterTables() error {
	matched := make(map[*schema.Table]bool)
	for _, t := range r.tables {
		if r.grepMatch(t) {
			matched[t] = true
		}
	}

	keep := make(map[*schema.Table]bool, len(matched))
	for t := range matched {
		keep[t] = true
	}
	for t := range relatedTables(matched, schema.Parent, r.opts.parentTableDepth) {
		keep[t] = true
	}
	for t := range relatedTables(matched, schema.Child, r.opts.childTableDepth) {
		keep[t] = true
	}

	var kept []*schema.Table
	for _, t := range r.tables {
		if keep[t] {
			kept = append(kept, t)
			continue
		}
		t.Schema().RemoveTable(t)
		r.logger.Debug("removed table not matching grep", zap.String("table", t.FullName()))
	}
	removed := len(r.tables) - len(kept)
	r.tables = kept
	r.logger.Debug("filtered tables",
		zap.Int("matched", len(matched)),
		zap.Int("kept", len(kept)),
		zap.Int("removed", removed),
	)

	if removed == 0 || !r.opts.level.Is(infolevel.RetrieveTables) {
		return nil
	}
	// Renumber the remaining tables. A cycle was already reported.
	if err := r.sortTables(); err != nil && !errors.Is(err, graph.ErrCycle) {
		return err
	}
	return nil
}

// grepMatch tests a table against the grep rules. The column rule is tested
// on column full names. The definition rule is tested on remarks, the view
// definition and trigger bodies. A table passes when any configured rule
// matches, and the result is flipped for an inverted grep.
func (r *retrieval) grepMatch(t *schema.Table) bool {
	columnRule := r.opts.grepColumnRule
	definitionRule := r.opts.grepDefinitionRule
	if columnRule == nil && definitionRule == nil {
		return true
	}

	var byColumns, byDefinitions bool
	for _, c := range t.Columns(schema.Natural) {
		if columnRule != nil && columnRule.Test(c.FullName()) {
			byColumns = true
		}
		if definitionRule != nil && definitionRule.Test(c.Remarks) {
			byDefinitions = true
		}
	}
	if definitionRule != nil && !byDefinitions {
		byDefinitions = definitionRule.Test(t.Remarks) || definitionRule.Test(t.Definition())
		for _, trigger := range t.Triggers(schema.Natural) {
			if byDefinitions {
				break
			}
			byDefinitions = definitionRule.Test(trigger.ActionStatement())
		}
	}

	include := byColumns || byDefinitions
	if r.opts.grepInvert {
		include = !include
	}
	return include
}

// relatedTables walks foreign keys from the given tables, depth steps in
// one direction, and returns every table reached along with the start set.
func relatedTables(from map[*schema.Table]bool, relationship schema.TableRelationship, depth int) map[*schema.Table]bool {
	reached := make(map[*schema.Table]bool, len(from))
	for t := range from {
		reached[t] = true
	}
	frontier := from
	for i := 0; i < depth && len(frontier) > 0; i++ {
		next := make(map[*schema.Table]bool)
		for t := range frontier {
			for _, related := range t.RelatedTables(relationship) {
				if !reached[related] {
					reached[related] = true
					next[related] = true
				}
			}
		}
		frontier = next
	}
	return reached
}
