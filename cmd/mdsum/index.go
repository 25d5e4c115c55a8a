package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index FILE...",
	Short: "Add files to the summary catalog",
	Long: `Adds the files to the catalog, summarizes every document in it and saves
the result. A file whose name is already indexed replaces the old entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := app.index.Open(cmd.Context()); err != nil {
		return err
	}
	report, err := app.index.Build(cmd.Context(), args)
	if report == nil {
		return err
	}
	if err != nil {
		cmd.PrintErrln("Warning:", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d file(s); catalog has %d documents, %d summaries.\n",
		len(report.Added), report.Stats.TotalDocuments, report.Stats.TotalSummaries)
	return nil
}
