package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mdsum/internal/domain"
	"mdsum/internal/mdparse"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed summaries",
	Long: `Ranks the summarized documents in the catalog by word overlap between
the query and each summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 3, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := app.index.Open(cmd.Context()); err != nil {
		return err
	}
	results, err := app.index.Search(args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchJSON {
		if results == nil {
			results = []domain.SearchResult{}
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s (%.3f)\n", i+1, r.DocID, r.Score)
		fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", snippet(r.Summary, 200))
	}
	return nil
}

func snippet(s string, n int) string {
	s = mdparse.CleanText(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
