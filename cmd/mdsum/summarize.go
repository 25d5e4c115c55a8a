package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mdsum/internal/service"
)

var (
	summarizeJSON bool
	summarizeHits string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize FILE...",
	Short: "Summarize markdown files",
	Long: `Summarizes each file and prints the combined result. The result is also
written to a timestamped file in the configured summary directory.

With --hits, summarizes a JSON array of search hits ({"link", "data",
"google_snipping"}) instead of files. Hits without data use their snippet.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if summarizeHits != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output the report as JSON")
	summarizeCmd.Flags().StringVar(&summarizeHits, "hits", "", "summarize search hits from a JSON file")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	var (
		report *service.Report
		err    error
	)
	if summarizeHits != "" {
		var hits []service.SearchHit
		hits, err = readHits(summarizeHits)
		if err != nil {
			return err
		}
		report, err = app.summaries.SummarizeHits(cmd.Context(), hits)
	} else {
		report, err = app.summaries.SummarizePaths(cmd.Context(), args)
	}
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}
	if summarizeJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
	fmt.Fprintln(cmd.OutOrStdout())
	for _, m := range report.Missing {
		fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", m)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", report.SummaryFile)
	return nil
}

func readHits(path string) ([]service.SearchHit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hits []service.SearchHit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return hits, nil
}
