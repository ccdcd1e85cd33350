package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "thera",
	Short: "Journaling companion with emotion-aware, retrieval-backed chat",
	Long: `Thera stores journal entries, detects the emotions and distress in
each one and replies like a counsellor. Replies are grounded in the
user's own earlier entries and, when distress runs high, in a library
of coping rituals.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(".env")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
