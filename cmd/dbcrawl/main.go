package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koba/dbcrawl/internal/config"
	"github.com/koba/dbcrawl/internal/diff"
	"github.com/koba/dbcrawl/internal/snapshot"
)

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dbcrawl",
		Short:         "Database metadata crawler",
		Long:          `A tool to crawl the structure of a database, store it as a snapshot and compare snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./dbcrawl.yaml)")

	rootCmd.AddCommand(newCrawlCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newLevelsCommand())
	return rootCmd
}

func newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <snapshot1> <snapshot2>",
		Short: "Compare two snapshots",
		Long:  `Compare the structure stored in two snapshots and display the differences.`,
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	snapshot1Path := args[0]
	snapshot2Path := args[1]

	// Load snapshots
	snap1, err := snapshot.Load(snapshot1Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot1: %w", err)
	}

	snap2, err := snapshot.Load(snapshot2Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot2: %w", err)
	}

	// Compare snapshots and display differences
	diff.Display(cmd.OutOrStdout(), diff.Compare(snap1, snap2))
	return nil
}

// loadConfig reads the file named by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
