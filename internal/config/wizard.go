package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to thera! Let's configure your companion.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "openrouter", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: preset.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 2. Emotion analyzer.
	analyzerPrompt := promptui.Select{
		Label: "Select emotion analyzer",
		Items: []string{
			"llm    - ask the chat model for emotions and distress",
			"gradio - call a hosted emotion classifier",
		},
	}
	analyzerIdx, _, err := analyzerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("analyzer selection: %w", err)
	}
	analyzer := AnalyzerConfig{Kind: AnalyzerLLM}
	if analyzerIdx == 1 {
		endpointPrompt := promptui.Prompt{
			Label: "Classifier endpoint URL",
		}
		endpoint, err := endpointPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("analyzer endpoint: %w", err)
		}
		analyzer = AnalyzerConfig{Kind: AnalyzerGradio, Endpoint: endpoint}
	}

	// 3. Storage.
	storagePrompt := promptui.Select{
		Label: "Select journal storage",
		Items: []string{"sqlite", "mongo"},
	}
	_, storageStr, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	embPreset := GetPreset(cfg.EmbeddingProvider)
	cfg.EmbeddingModel = embPreset.EmbeddingModel
	cfg.EmbeddingDimensions = embPreset.EmbeddingDimensions
	cfg.Analyzer = analyzer
	cfg.Storage.Driver = StorageDriver(storageStr)

	if cfg.Storage.Driver == StorageMongo {
		uriPrompt := promptui.Prompt{
			Label:   "MongoDB URI",
			Default: "mongodb://localhost:27017",
		}
		uri, err := uriPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("mongo uri: %w", err)
		}
		cfg.Storage.MongoURI = uri
	}

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			if _, err := strconv.Atoi(s); err != nil {
				return fmt.Errorf("not a number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment (or .env) before running thera server.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenRouter has no embeddings endpoint, so it falls back to
// OpenAI.
func embeddingProviderFor(p ProviderType) ProviderType {
	switch p {
	case ProviderOllama, ProviderGoogle:
		return p
	default:
		return ProviderOpenAI
	}
}
