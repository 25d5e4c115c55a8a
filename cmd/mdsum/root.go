package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool

	app *application
)

var rootCmd = &cobra.Command{
	Use:   "mdsum",
	Short: "Summarize markdown documents with a language model",
	Long: `mdsum summarizes markdown documents through an SGLang or OpenAI-compatible
backend. Long documents are split into chunks, summarized concurrently
and merged. Summaries can be indexed and searched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if app != nil {
			_ = app.Close()
		}
		a, err := newApplication(cfgPath, verbose)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/mdsum/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
