package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/chat"
	"github.com/Aden1ke/Thera/internal/config"
	"github.com/Aden1ke/Thera/internal/contextengine"
	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/retrieval"
	"github.com/Aden1ke/Thera/internal/server"
	"github.com/Aden1ke/Thera/internal/telemetry"
	"github.com/Aden1ke/Thera/internal/videos"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Thera HTTP and WebSocket server",
	Long: `Starts the journal and chat API. The seed index is built from the
store at startup, and the journal index is replayed when
index.replay_journals is set.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerOptions{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Insecure:    true,
	}, logger)
	if err != nil {
		return fmt.Errorf("starting tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

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

	provider, err := createLLMProviderFromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	idx, err := buildIndexes(ctx, cfg, store, emb, logger)
	if err != nil {
		return err
	}

	journals := journal.NewService(store, createAnalyzer(cfg, provider),
		journal.WithAlertThreshold(cfg.Distress.AlertThreshold),
		journal.WithMinOccurrences(cfg.Patterns.MinOccurrences),
		journal.WithLogger(logger),
		journal.WithMetrics(metrics),
	)

	retriever := retrieval.NewService(retrieval.WithLogger(logger), retrieval.WithMetrics(metrics))
	assembler := contextengine.NewAssembler(idx.journals, idx.seeds, retriever,
		contextengine.WithDistressThreshold(cfg.Retrieval.DistressThreshold),
		contextengine.WithTopK(cfg.Retrieval.JournalTopK, cfg.Retrieval.SeedTopK),
		contextengine.WithLogger(logger),
		contextengine.WithMetrics(metrics),
	)
	orchestrator := chat.NewOrchestrator(journals, idx.journals, assembler,
		chat.NewLLMCompleter(provider, cfg.Model, cfg.Temperature, logger),
		chat.WithRequestTimeout(cfg.Chat.RequestTimeout),
		chat.WithLogger(logger),
	)

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		AllowAll:       cfg.Server.AllowAllOrigins,
		RequestTimeout: cfg.Chat.RequestTimeout,
	}, store, logger)
	srv.API(func(r chi.Router) {
		journal.RegisterRoutes(r, journals, logger)
		chat.RegisterRoutes(r, orchestrator, logger)
	})
	chat.RegisterSocket(srv.Router(), orchestrator, logger)
	videos.RegisterRoutes(srv.Router(), videoSearcher(ctx, logger), logger)

	sweeper := startSweeper(cfg, journals, logger)
	defer sweeper.Stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("thera server starting",
		"version", Version,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"analyzer", cfg.Analyzer.Kind,
		"seeds_indexed", idx.seeds.Len(),
		"journals_indexed", idx.journals.Len(),
	)
	return srv.Start()
}

// videoSearcher returns nil when no YouTube client can be built, so the
// search route reports a configuration error.
func videoSearcher(ctx context.Context, logger *slog.Logger) videos.Searcher {
	yt, err := videos.NewFromEnv(ctx)
	if err != nil {
		logger.Warn("ritual video search disabled", "error", err)
		return nil
	}
	return yt
}

// startSweeper schedules the wound-seed sweep. A failure to schedule is
// logged and leaves the server running without it.
func startSweeper(cfg *config.Config, svc *journal.Service, logger *slog.Logger) *journal.PatternSweeper {
	sweeper := journal.NewPatternSweeper(svc, cfg.Patterns.SweepInterval, cfg.Patterns.Lookback, logger)
	if cfg.Patterns.SweepInterval <= 0 {
		return sweeper
	}
	if err := sweeper.Start(); err != nil {
		logger.Warn("pattern sweep disabled", "error", err)
	}
	return sweeper
}
