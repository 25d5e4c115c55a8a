package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mdsum/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [FILE...]",
	Short: "Browse the catalog interactively",
	Long:  `Opens a terminal UI over the catalog. Files given as arguments are indexed first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.index.Open(cmd.Context()); err != nil {
			return err
		}
		if len(args) > 0 {
			if _, err := app.index.Build(cmd.Context(), args); err != nil {
				app.logger.Sugar().Warnf("indexing: %v", err)
			}
		}
		_, err := tea.NewProgram(tui.New(app.index), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
