package embeddings

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGoogleModel = "text-embedding-004"

// GoogleEmbedder generates embeddings with the Gemini API.
type GoogleEmbedder struct {
	client *genai.Client
	model  string
}

// NewGoogleEmbedder opens a Gemini client. Call Close when done.
func NewGoogleEmbedder(ctx context.Context, apiKey, model string) (*GoogleEmbedder, error) {
	if model == "" {
		model = defaultGoogleModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GoogleEmbedder{client: client, model: model}, nil
}

func (e *GoogleEmbedder) Name() string { return "google/" + e.model }

func (e *GoogleEmbedder) Dimensions() int {
	if e.model == defaultGoogleModel {
		return 768
	}
	return 0
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		resp, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, fmt.Errorf("gemini embedding request failed for text %d: %w", i, err)
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("gemini returned no embedding for text %d", i)
		}
		out = append(out, resp.Embedding.Values)
	}
	return out, nil
}

// Close releases the underlying client.
func (e *GoogleEmbedder) Close() error {
	return e.client.Close()
}
