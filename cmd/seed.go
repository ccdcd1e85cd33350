package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/progress"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage the coping-ritual seeds",
}

var seedDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Install the built-in ritual seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return installSeeds(cmd, journal.DefaultSeeds(), "Installing default seeds")
	},
}

var seedImportCmd = &cobra.Command{
	Use:   "import [glob]",
	Short: "Import ritual seeds from YAML files",
	Long: `Loads every YAML file matching the glob (doublestar syntax, e.g.
rituals/**/*.yml) and stores its seeds. Without an argument index.seed_glob
is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pattern = cfg.Index.SeedGlob
		}
		if pattern == "" {
			return fmt.Errorf("no glob given and index.seed_glob is not set")
		}

		seeds, err := journal.LoadSeedFiles(pattern)
		if err != nil {
			return err
		}
		if len(seeds) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No seeds matched %s\n", pattern)
			return nil
		}
		return installSeeds(cmd, seeds, "Importing seeds")
	},
}

var seedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored ritual seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogger(cfg)
		ctx := context.Background()

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		seeds, err := store.ListAllSeeds(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(seeds) == 0 {
			fmt.Fprintln(out, "No seeds stored. Run `thera seed defaults`.")
			return nil
		}
		for _, s := range seeds {
			fmt.Fprintf(out, "%s  [%s] distress %g\n    %s\n", s.ID, strings.Join(s.EmotionTags, ", "), s.DistressLevel, truncate(s.Prompt, 100))
		}
		return nil
	},
}

func installSeeds(cmd *cobra.Command, seeds []journal.Seed, description string) error {
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

	reporter := progress.NewReporter(os.Stderr)
	reporter.Start(len(seeds), description)
	for i := range seeds {
		if _, err := journal.InstallSeeds(ctx, store, seeds[i:i+1]); err != nil {
			reporter.Finish()
			return fmt.Errorf("storing seed %d: %w", i+1, err)
		}
		reporter.Update(i+1, truncate(seeds[i].Prompt, 40))
	}
	reporter.Finish()

	logger.Info("seeds stored", "count", len(seeds))
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d seed(s)\n", len(seeds))
	return nil
}

func init() {
	seedCmd.AddCommand(seedDefaultsCmd, seedImportCmd, seedListCmd)
	rootCmd.AddCommand(seedCmd)
}
