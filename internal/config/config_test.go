package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Model != "gpt-3.5-turbo" {
		t.Errorf("expected default model gpt-3.5-turbo, got %q", cfg.Model)
	}
	if cfg.Retrieval.DistressThreshold != 8 {
		t.Errorf("expected distress threshold 8, got %v", cfg.Retrieval.DistressThreshold)
	}
	if cfg.Retrieval.JournalTopK != 4 || cfg.Retrieval.SeedTopK != 4 {
		t.Errorf("expected top-k 4/4, got %d/%d", cfg.Retrieval.JournalTopK, cfg.Retrieval.SeedTopK)
	}
	if cfg.Index.ReplayJournals {
		t.Error("journal replay should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.thera.yml")

	original := DefaultConfig()
	original.Provider = ProviderGoogle
	original.Model = "gemini-2.0-flash"
	original.Retrieval.DistressThreshold = 6.5
	original.Storage.Driver = StorageMongo
	original.Storage.MongoURI = "mongodb://db:27017"
	original.Chat.RequestTimeout = 15 * time.Second

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Retrieval.DistressThreshold != 6.5 {
		t.Errorf("distress_threshold: got %v, want 6.5", loaded.Retrieval.DistressThreshold)
	}
	if loaded.Storage.MongoURI != original.Storage.MongoURI {
		t.Errorf("mongo_uri: got %q, want %q", loaded.Storage.MongoURI, original.Storage.MongoURI)
	}
	if loaded.Chat.RequestTimeout != 15*time.Second {
		t.Errorf("request_timeout: got %v, want 15s", loaded.Chat.RequestTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".thera.yml")
	content := "retrieval:\n  seed_top_k: 2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retrieval.SeedTopK != 2 {
		t.Errorf("seed_top_k: got %d, want 2", cfg.Retrieval.SeedTopK)
	}
	if cfg.Retrieval.JournalTopK != 4 {
		t.Errorf("journal_top_k should keep default 4, got %d", cfg.Retrieval.JournalTopK)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yml")
	t.Setenv("THERA_MODEL", "gpt-4o")
	t.Setenv("THERA_RETRIEVAL__DISTRESS_THRESHOLD", "9")
	t.Setenv("THERA_SERVER__PORT", "8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("model: got %q, want gpt-4o", cfg.Model)
	}
	if cfg.Retrieval.DistressThreshold != 9 {
		t.Errorf("distress_threshold: got %v, want 9", cfg.Retrieval.DistressThreshold)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port: got %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("THERA_DOTENV_PROBE=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THERA_DOTENV_PROBE", "")
	os.Unsetenv("THERA_DOTENV_PROBE")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("THERA_DOTENV_PROBE"); got != "from-file" {
		t.Errorf("THERA_DOTENV_PROBE = %q, want from-file", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"openrouter embeddings", func(c *Config) { c.EmbeddingProvider = ProviderOpenRouter }},
		{"ollama without dims", func(c *Config) { c.EmbeddingProvider = ProviderOllama; c.EmbeddingDimensions = 0 }},
		{"gradio without endpoint", func(c *Config) { c.Analyzer.Kind = AnalyzerGradio }},
		{"unknown analyzer", func(c *Config) { c.Analyzer.Kind = "bert" }},
		{"zero top-k", func(c *Config) { c.Retrieval.SeedTopK = 0 }},
		{"threshold above scale", func(c *Config) { c.Retrieval.DistressThreshold = 11 }},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = StorageMongo }},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }},
		{"zero min occurrences", func(c *Config) { c.Patterns.MinOccurrences = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderGoogle); p.EmbeddingModel != "text-embedding-004" {
		t.Errorf("google embedding model: got %q", p.EmbeddingModel)
	}
	if p := GetPreset(ProviderOllama); p.EmbeddingDimensions != 768 {
		t.Errorf("ollama embedding dims: got %d", p.EmbeddingDimensions)
	}
	if p := GetPreset("unknown"); p.Model != "gpt-3.5-turbo" {
		t.Errorf("unknown provider should fall back to openai, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
