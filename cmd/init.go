package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a Thera configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks the providers, analyzer and storage, then writes .thera.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
