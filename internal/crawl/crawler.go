// Package crawl builds a metadata graph from a database Source.
//
// A crawl runs a fixed sequence of phases. Each phase is switched on or off
// by the info level. The phases that build the skeleton of the graph
// (database info, schemas, tables, columns and keys) must succeed; any other
// phase that fails is recorded as a warning and the crawl moves on.
package crawl

import (
	"time"

	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/infolevel"
	"github.com/koba/dbcrawl/internal/schema"
)

// Crawler retrieves metadata from one source.
type Crawler struct {
	source database.Source
	opts   *options
}

// Result is the outcome of a successful crawl.
type Result struct {
	Database  *schema.Database
	InfoLevel *infolevel.Level
	Warnings  []Warning
	Duration  time.Duration
}

// New creates a crawler reading from a connected source.
func New(source database.Source, opts ...Option) *Crawler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Crawler{source: source, opts: o}
}

type phase struct {
	name     string
	enabled  bool
	required bool
	run      func() error
}

// Crawl runs every enabled phase in order. It returns a CrawlError when a
// required phase fails, and no partial result.
func (c *Crawler) Crawl() (*Result, error) {
	start := time.Now()
	level := c.opts.level
	r := newRetrieval(c.source, c.opts)

	phases := []phase{
		{"database info", level.Is(infolevel.RetrieveDatabaseInfo) || level.Is(infolevel.RetrieveDriverInfo), true, r.retrieveDatabaseInfo},
		{"additional database info", level.Is(infolevel.RetrieveAdditionalDatabaseInfo), false, r.retrieveAdditionalDatabaseInfo},
		{"schemas", true, true, r.retrieveSchemas},
		{"column data types", level.Is(infolevel.RetrieveColumnDataTypes), false, r.retrieveColumnDataTypes},
		{"user defined column data types", level.Is(infolevel.RetrieveUserDefinedColumnDataTypes), false, r.retrieveUserDefinedColumnDataTypes},
		{"tables", level.Is(infolevel.RetrieveTables), true, r.retrieveTables},
		{"columns", level.Is(infolevel.RetrieveTableColumns), true, r.retrieveColumns},
		{"primary keys", level.Is(infolevel.RetrievePrimaryKeys), true, r.retrievePrimaryKeys},
		{"indexes", level.Is(infolevel.RetrieveIndexes), true, r.retrieveIndexes},
		{"foreign keys", level.Is(infolevel.RetrieveForeignKeys), true, r.retrieveForeignKeys},
		{"tables graph", level.Is(infolevel.RetrieveTables), false, r.sortTables},
		{"check constraints", level.Is(infolevel.RetrieveCheckConstraints), false, r.retrieveCheckConstraints},
		{"triggers", level.Is(infolevel.RetrieveTriggers), false, r.retrieveTriggers},
		{"view definitions", level.Is(infolevel.RetrieveViewDefinitions), false, r.retrieveViewDefinitions},
		{"table filter", c.opts.grepping(), false, r.filterTables},
		{"table privileges", level.Is(infolevel.RetrieveTablePrivileges), false, r.retrieveTablePrivileges},
		{"column privileges", level.Is(infolevel.RetrieveColumnPrivileges), false, r.retrieveColumnPrivileges},
		{"additional table attributes", level.Is(infolevel.RetrieveAdditionalTableAttributes), false, r.retrieveAdditionalTableAttributes},
		{"additional column attributes", level.Is(infolevel.RetrieveAdditionalColumnAttributes), false, r.retrieveAdditionalColumnAttributes},
		{"procedures", level.Is(infolevel.RetrieveProcedures), false, r.retrieveProcedures},
		{"procedure columns", level.Is(infolevel.RetrieveProcedureColumns), false, r.retrieveProcedureColumns},
		{"procedure definitions", level.Is(infolevel.RetrieveProcedureDefinitions), false, r.retrieveProcedureDefinitions},
		{"weak associations", level.Is(infolevel.RetrieveWeakAssociations), false, r.retrieveWeakAssociations},
	}

	r.logger.Info("starting crawl", zap.String("info_level", level.Tag()))

	for _, p := range phases {
		if !p.enabled {
			r.logger.Debug("skipping phase", zap.String("phase", p.name))
			continue
		}

		r.phase = p.name
		phaseStart := time.Now()
		err := p.run()
		if err == nil {
			r.logger.Debug("finished phase",
				zap.String("phase", p.name),
				zap.Duration("elapsed", time.Since(phaseStart)),
			)
			continue
		}

		if p.required {
			r.logger.Error("crawl failed", zap.String("phase", p.name), zap.Error(err))
			return nil, &CrawlError{Phase: p.name, Err: err}
		}
		r.degraded("", err)
	}

	result := &Result{
		Database:  r.db,
		InfoLevel: level,
		Warnings:  r.warnings,
		Duration:  time.Since(start),
	}
	r.logger.Info("finished crawl",
		zap.Int("schemas", len(r.db.Schemas(schema.Natural))),
		zap.Int("tables", len(r.tables)),
		zap.Int("warnings", len(r.warnings)),
		zap.Duration("elapsed", result.Duration),
	)
	return result, nil
}
