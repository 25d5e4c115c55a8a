package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.index.Open(cmd.Context()); err != nil {
			return err
		}
		st := app.index.Statistics()
		if statsJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal statistics: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Documents:          %d\n", st.TotalDocuments)
		fmt.Fprintf(cmd.OutOrStdout(), "Summaries:          %d\n", st.TotalSummaries)
		fmt.Fprintf(cmd.OutOrStdout(), "Avg content length: %d\n", st.AvgContentLength)
		fmt.Fprintf(cmd.OutOrStdout(), "Avg summary length: %d\n", st.AvgSummaryLength)
		for _, id := range st.DocIDs {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", id)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}
