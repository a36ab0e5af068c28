package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/config"
	"github.com/koba/dbcrawl/internal/crawl"
	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/filter"
	"github.com/koba/dbcrawl/internal/infolevel"
	"github.com/koba/dbcrawl/internal/logging"
	"github.com/koba/dbcrawl/internal/report"
	"github.com/koba/dbcrawl/internal/schema"
	"github.com/koba/dbcrawl/internal/snapshot"
)

var (
	infoLevel    string
	snapshotPath string
	alphabetical bool
)

func newCrawlCommand() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl database metadata",
		Long: `Crawl the structure of the configured database. The result is saved
as a snapshot when --snapshot is given, and printed otherwise.`,
		Args: cobra.NoArgs,
		RunE: runCrawl,
	}
	crawlCmd.Flags().StringVar(&infoLevel, "info-level", "", "Info level preset: minimum, basic, standard, verbose or maximum")
	crawlCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Save the crawl to this snapshot file")
	crawlCmd.Flags().BoolVar(&alphabetical, "alphabetical", false, "List tables by name instead of dependency order")
	return crawlCmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if infoLevel != "" {
		cfg.Crawl.InfoLevel = infoLevel
	}
	if cmd.Flags().Changed("alphabetical") {
		cfg.Crawl.SortAlphabetical = alphabetical
	}

	logger, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	opts, err := crawlOptions(cfg, logger)
	if err != nil {
		return err
	}
	result, err := crawl.New(source, opts...).Crawl()
	if err != nil {
		return err
	}

	doc := newDocument(result, cfg.Crawl.SortAlphabetical)
	if snapshotPath == "" {
		report.WriteText(cmd.OutOrStdout(), doc)
		return nil
	}

	if err := snapshot.Save(doc, snapshotPath); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot created successfully: %s (%d tables, %d warnings)\n",
		snapshotPath, len(doc.Tables), len(doc.Warnings))
	return nil
}

// connect opens the configured database
func connect(cfg *config.Config, logger *zap.Logger) (database.Source, error) {
	dbConfig := cfg.Source()
	if err := dbConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	source, err := database.NewSource(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	logger.Debug("connecting", zap.String("type", dbConfig.Type), zap.String("database", dbConfig.Database))
	if err := source.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return source, nil
}

// crawlOptions turns the crawl section of the config into crawler options
func crawlOptions(cfg *config.Config, logger *zap.Logger) ([]crawl.Option, error) {
	level, err := cfg.Crawl.Level()
	if err != nil {
		return nil, err
	}
	opts := []crawl.Option{
		crawl.WithInfoLevel(level),
		crawl.WithTableNamePattern(cfg.Crawl.TableNamePattern),
		crawl.WithTableTypes(cfg.Crawl.TableTypes...),
		crawl.WithLogger(logger),
	}

	rules := []struct {
		rule   config.RuleConfig
		option func(*filter.Rule) crawl.Option
	}{
		{cfg.Crawl.Schemas, crawl.WithSchemaRule},
		{cfg.Crawl.Tables, crawl.WithTableRule},
		{cfg.Crawl.Columns, crawl.WithColumnRule},
		{cfg.Crawl.Procedures, crawl.WithProcedureRule},
		{cfg.Crawl.ProcedureColumns, crawl.WithProcedureColumnRule},
	}
	for _, r := range rules {
		rule, err := r.rule.Rule()
		if err != nil {
			return nil, err
		}
		opts = append(opts, r.option(rule))
	}

	grep := cfg.Crawl.Grep
	columns, err := grep.Columns.GrepRule()
	if err != nil {
		return nil, err
	}
	definitions, err := grep.Definitions.GrepRule()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		crawl.WithGrepColumns(columns),
		crawl.WithGrepDefinitions(definitions),
		crawl.WithGrepInvert(grep.Invert),
		crawl.WithParentTableDepth(cfg.Crawl.ParentTableDepth),
		crawl.WithChildTableDepth(cfg.Crawl.ChildTableDepth),
	)
	return opts, nil
}

// newDocument copies a crawl result into a snapshot document
func newDocument(result *crawl.Result, alphabetical bool) *snapshot.Document {
	order := schema.Natural
	if alphabetical {
		order = schema.Alphabetical
	}

	doc := snapshot.NewDocument(result.Database, order)
	doc.InfoLevel = result.InfoLevel.Tag()
	for _, w := range result.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}
	return doc
}

func newLevelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List info level presets",
		Long:  `List the retrievals each info level preset enables.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, level := range infolevel.Presets() {
				fmt.Fprintf(out, "%s:\n", level.Tag())
				for _, flag := range level.Enabled() {
					fmt.Fprintf(out, "  %s\n", flag)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "standard is %s\n", infolevel.Standard().Tag())
			return nil
		},
	}
}
