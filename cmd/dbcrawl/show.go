package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koba/dbcrawl/internal/report"
	"github.com/koba/dbcrawl/internal/snapshot"
)

var (
	showFormat  string
	showDialect string
)

func newShowCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <snapshot>",
		Short: "Print a snapshot",
		Long:  `Print the structure stored in a snapshot as an outline or as CREATE statements.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().StringVar(&showFormat, "format", "text", "Output format: text or ddl")
	showCmd.Flags().StringVar(&showDialect, "dialect", "", "Identifier quoting for ddl: postgres, mysql or sqlite (default: crawled product)")
	return showCmd
}

func runShow(cmd *cobra.Command, args []string) error {
	doc, err := snapshot.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	switch showFormat {
	case "text", "":
		report.WriteText(cmd.OutOrStdout(), doc)
	case "ddl":
		report.WriteDDL(cmd.OutOrStdout(), doc, showDialect)
	default:
		return fmt.Errorf("unknown format: %q", showFormat)
	}
	return nil
}
