package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
)

// StorageDriver selects the durable journal store.
type StorageDriver string

const (
	StorageSQLite StorageDriver = "sqlite"
	StorageMongo  StorageDriver = "mongo"
)

// AnalyzerKind selects how emotions and distress are detected.
type AnalyzerKind string

const (
	AnalyzerLLM    AnalyzerKind = "llm"
	AnalyzerGradio AnalyzerKind = "gradio"
)

// Config is the top-level Thera configuration, corresponding to .thera.yml.
type Config struct {
	Provider            ProviderType    `yaml:"provider" koanf:"provider"`
	Model               string          `yaml:"model" koanf:"model"`
	Temperature         float64         `yaml:"temperature" koanf:"temperature"`
	EmbeddingProvider   ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string          `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int             `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	Analyzer            AnalyzerConfig  `yaml:"analyzer" koanf:"analyzer"`
	Retrieval           RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Index               IndexConfig     `yaml:"index" koanf:"index"`
	Storage             StorageConfig   `yaml:"storage" koanf:"storage"`
	Cache               CacheConfig     `yaml:"cache" koanf:"cache"`
	Server              ServerConfig    `yaml:"server" koanf:"server"`
	Chat                ChatConfig      `yaml:"chat" koanf:"chat"`
	Telemetry           TelemetryConfig `yaml:"telemetry" koanf:"telemetry"`
	Distress            DistressConfig  `yaml:"distress" koanf:"distress"`
	Patterns            PatternsConfig  `yaml:"patterns" koanf:"patterns"`
	LLM                 LLMConfig       `yaml:"llm" koanf:"llm"`
	Log                 LogConfig       `yaml:"log" koanf:"log"`
}

// AnalyzerConfig configures emotion analysis.
type AnalyzerConfig struct {
	Kind     AnalyzerKind `yaml:"kind" koanf:"kind"`
	Endpoint string       `yaml:"endpoint" koanf:"endpoint"` // gradio only
}

// RetrievalConfig holds the context assembly policy.
type RetrievalConfig struct {
	DistressThreshold float64 `yaml:"distress_threshold" koanf:"distress_threshold"`
	JournalTopK       int     `yaml:"journal_top_k" koanf:"journal_top_k"`
	SeedTopK          int     `yaml:"seed_top_k" koanf:"seed_top_k"`
}

// IndexConfig controls how the in-memory indexes are populated at startup.
type IndexConfig struct {
	ReplayJournals bool   `yaml:"replay_journals" koanf:"replay_journals"`
	SeedGlob       string `yaml:"seed_glob" koanf:"seed_glob"`
}

// StorageConfig selects and configures the durable store.
type StorageConfig struct {
	Driver        StorageDriver `yaml:"driver" koanf:"driver"`
	SQLitePath    string        `yaml:"sqlite_path" koanf:"sqlite_path"`
	MongoURI      string        `yaml:"mongo_uri" koanf:"mongo_uri"`
	MongoDatabase string        `yaml:"mongo_database" koanf:"mongo_database"`
}

// CacheConfig configures the optional redis embedding cache.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" koanf:"redis_url"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// ChatConfig configures the chat flow.
type ChatConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// TelemetryConfig configures OpenTelemetry export. An empty endpoint
// disables tracing.
type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint" koanf:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio" koanf:"sample_ratio"`
	ServiceName  string  `yaml:"service_name" koanf:"service_name"`
}

// DistressConfig configures distress-log alerts.
type DistressConfig struct {
	AlertThreshold float64 `yaml:"alert_threshold" koanf:"alert_threshold"`
}

// PatternsConfig configures recurring-emotion detection.
type PatternsConfig struct {
	MinOccurrences int           `yaml:"min_occurrences" koanf:"min_occurrences"`
	SweepInterval  time.Duration `yaml:"sweep_interval" koanf:"sweep_interval"`
	Lookback       time.Duration `yaml:"lookback" koanf:"lookback"`
}

// LLMConfig holds client-side limits for the completion provider.
type LLMConfig struct {
	RequestsPerMinute   int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio" koanf:"breaker_failure_ratio"`
	BreakerTimeout      time.Duration `yaml:"breaker_timeout" koanf:"breaker_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"` // "text" or "json"
}
