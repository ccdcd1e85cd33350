package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/journal"
	mcpserver "github.com/Aden1ke/Thera/internal/mcp"
	"github.com/Aden1ke/Thera/internal/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio that exposes ritual
search, journal search and wound-seed listing. Journals are always
replayed into the index so that search_journal has data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		emb, closeEmb, err := createEmbedderFromConfig(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		defer closeEmb()

		cfg.Index.ReplayJournals = true
		idx, err := buildIndexes(ctx, cfg, store, emb, logger)
		if err != nil {
			return err
		}

		// Read-only: the MCP tools never store entries.
		patterns := journal.NewService(store, nil,
			journal.WithMinOccurrences(cfg.Patterns.MinOccurrences),
			journal.WithLogger(logger),
		)
		retriever := retrieval.NewService(retrieval.WithDefaultTopK(cfg.Retrieval.SeedTopK), retrieval.WithLogger(logger))

		mcpserver.Version = Version
		logger.Info("thera MCP server started on stdio",
			"seeds", idx.seeds.Len(),
			"journals", idx.journals.Len(),
		)

		srv := mcpserver.NewServer(idx.journals, idx.seeds, patterns, retriever)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
