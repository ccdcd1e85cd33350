package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Aden1ke/Thera/internal/analysis"
	"github.com/Aden1ke/Thera/internal/config"
	"github.com/Aden1ke/Thera/internal/db"
	"github.com/Aden1ke/Thera/internal/embeddings"
	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/llm"
	"github.com/Aden1ke/Thera/internal/logging"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `thera init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// setupLogger installs the configured logger as the slog default. -v
// forces debug level.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// createEmbedderFromConfig creates the embedder named by the config,
// wrapped in the redis cache when one is configured. The returned func
// releases any clients.
func createEmbedderFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, func(), error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}

	var emb embeddings.Embedder
	closers := []func(){}

	switch provider {
	case config.ProviderOllama:
		emb = embeddings.NewOllamaEmbedder(model, cfg.EmbeddingDimensions, "")
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		g, err := embeddings.NewGoogleEmbedder(ctx, apiKey, model)
		if err != nil {
			return nil, nil, err
		}
		emb = g
		closers = append(closers, func() { g.Close() })
	default:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings (provider %s)", provider)
		}
		emb = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), "")
	}

	if cfg.Cache.RedisURL != "" {
		backend, err := embeddings.NewRedisBackend(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("embedding cache disabled", "error", err)
		} else {
			emb = embeddings.NewCachedEmbedder(emb, backend, cfg.Cache.TTL, logger)
			closers = append(closers, func() { backend.Close() })
		}
	}

	return emb, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

// createLLMProviderFromConfig creates the completion provider with rate
// limiting, a circuit breaker and tracing layered on top.
func createLLMProviderFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
	p, err := llm.NewProvider(ctx, string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.RequestsPerMinute > 0 {
		p = llm.NewRateLimitedProvider(p, cfg.LLM.RequestsPerMinute)
	}

	settings := llm.DefaultBreakerSettings()
	if cfg.LLM.BreakerFailureRatio > 0 {
		settings.FailureRatio = cfg.LLM.BreakerFailureRatio
	}
	if cfg.LLM.BreakerTimeout > 0 {
		settings.Timeout = cfg.LLM.BreakerTimeout
	}
	p = llm.NewBreakerProvider(p, settings, logger)

	return llm.NewTracedProvider(p), nil
}

// createAnalyzer builds the configured emotion analyzer.
func createAnalyzer(cfg *config.Config, provider llm.Provider) analysis.Analyzer {
	if cfg.Analyzer.Kind == config.AnalyzerGradio {
		return analysis.NewGradioAnalyzer(cfg.Analyzer.Endpoint, &http.Client{Timeout: 30 * time.Second})
	}
	return analysis.NewLLMAnalyzer(provider, cfg.Model)
}

// openStore opens the configured durable store. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config) (journal.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		s, err := journal.ConnectMongo(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close(context.Background()) }, nil
	default:
		database, err := db.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return journal.NewSQLStore(database), func() { database.Close() }, nil
	}
}
