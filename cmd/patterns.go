package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/journal"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Find recurring emotions (wound seeds) in journals",
	Long: `Scans healing-memory summaries for recurring emotions. With --user only
that user is scanned; otherwise every user active within patterns.lookback
is swept, the same way the server's scheduled sweep does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg)
		ctx := context.Background()

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		svc := journal.NewService(store, nil,
			journal.WithMinOccurrences(cfg.Patterns.MinOccurrences),
			journal.WithLogger(logger),
		)

		var result any
		if userID != "" {
			seeds, err := svc.Patterns(ctx, userID)
			if err != nil {
				return err
			}
			result = seeds
		} else {
			found, err := journal.NewPatternSweeper(svc, cfg.Patterns.SweepInterval, cfg.Patterns.Lookback, logger).RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("sweeping patterns: %w", err)
			}
			result = found
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	patternsCmd.Flags().String("user", "", "scan only this user")
	rootCmd.AddCommand(patternsCmd)
}
