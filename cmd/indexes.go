package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Aden1ke/Thera/internal/config"
	"github.com/Aden1ke/Thera/internal/embeddings"
	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/progress"
	"github.com/Aden1ke/Thera/internal/vectordb"
)

type indexes struct {
	journals *vectordb.Index[journal.JournalMetadata]
	seeds    *vectordb.Index[journal.SeedMetadata]
}

// buildIndexes creates both indexes. The seed index holds every stored
// seed plus any seed files matched by index.seed_glob. The journal index
// stays uninitialized unless index.replay_journals is set.
func buildIndexes(ctx context.Context, cfg *config.Config, store journal.Store, emb embeddings.Embedder, logger *slog.Logger) (*indexes, error) {
	idx := &indexes{
		journals: vectordb.New[journal.JournalMetadata]("journal", emb),
		seeds:    vectordb.New[journal.SeedMetadata]("seeds", emb),
	}

	seeds, err := store.ListAllSeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	if cfg.Index.SeedGlob != "" {
		fromFiles, err := journal.LoadSeedFiles(cfg.Index.SeedGlob)
		if err != nil {
			return nil, fmt.Errorf("loading seed files: %w", err)
		}
		seeds = append(seeds, fromFiles...)
	}
	if err := idx.seeds.Initialize(ctx, journal.SeedInputs(seeds)); err != nil {
		return nil, err
	}
	logger.Info("seed index ready", "seeds", len(seeds))

	if cfg.Index.ReplayJournals {
		if err := replayJournals(ctx, store, idx.journals, logger); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func replayJournals(ctx context.Context, store journal.Store, index *vectordb.Index[journal.JournalMetadata], logger *slog.Logger) error {
	reporter := progress.NewReporter(os.Stderr)
	reporter.Start(2, "Replaying journals")
	defer reporter.Finish()

	entries, err := store.AllJournals(ctx)
	if err != nil {
		return fmt.Errorf("loading journals: %w", err)
	}
	reporter.Update(1, fmt.Sprintf("loaded %d entries", len(entries)))

	if err := index.Initialize(ctx, journal.JournalInputs(entries)); err != nil {
		return err
	}
	reporter.Update(2, "indexed")
	logger.Info("journal index replayed", "entries", len(entries))
	return nil
}
