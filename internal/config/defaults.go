package config

import "time"

// Preset describes the default models for a provider.
type Preset struct {
	Model          string
	EmbeddingModel string
	// EmbeddingDimensions is 0 when the provider reports it itself.
	EmbeddingDimensions int
}

var presets = map[ProviderType]Preset{
	ProviderOpenAI:     {Model: "gpt-3.5-turbo", EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenRouter: {Model: "openai/gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle:     {Model: "gemini-2.0-flash", EmbeddingModel: "text-embedding-004"},
	ProviderOllama:     {Model: "llama3", EmbeddingModel: "nomic-embed-text", EmbeddingDimensions: 768},
}

// GetPreset returns the preset for provider, falling back to OpenAI.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderOpenAI]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-3.5-turbo",
		Temperature:       0.7,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Analyzer: AnalyzerConfig{
			Kind: AnalyzerLLM,
		},
		Retrieval: RetrievalConfig{
			DistressThreshold: 8,
			JournalTopK:       4,
			SeedTopK:          4,
		},
		Index: IndexConfig{
			ReplayJournals: false,
		},
		Storage: StorageConfig{
			Driver:        StorageSQLite,
			SQLitePath:    "data/thera.db",
			MongoDatabase: "thera",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Server: ServerConfig{
			Port: 5000,
		},
		Chat: ChatConfig{
			RequestTimeout: 60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 0.1,
			ServiceName: "thera",
		},
		Distress: DistressConfig{
			AlertThreshold: 7,
		},
		Patterns: PatternsConfig{
			MinOccurrences: 3,
			SweepInterval:  6 * time.Hour,
			Lookback:       7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			RequestsPerMinute:   60,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
