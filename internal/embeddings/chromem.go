package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

const defaultOllamaBaseURL = "http://localhost:11434/api"

// FuncEmbedder adapts a chromem-go EmbeddingFunc, which embeds one text per
// call, to the Embedder interface.
type FuncEmbedder struct {
	name string
	dims int
	fn   chromem.EmbeddingFunc
}

// FromChromemFunc wraps fn. dims may be 0 when the model size is unknown.
func FromChromemFunc(name string, dims int, fn chromem.EmbeddingFunc) *FuncEmbedder {
	return &FuncEmbedder{name: name, dims: dims, fn: fn}
}

// NewOllamaEmbedder embeds through a local Ollama server using chromem-go's
// Ollama client. baseURL is the Ollama API root, e.g.
// http://localhost:11434/api.
func NewOllamaEmbedder(model string, dims int, baseURL string) *FuncEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return FromChromemFunc("ollama/"+model, dims, chromem.NewEmbeddingFuncOllama(model, baseURL))
}

func (e *FuncEmbedder) Name() string    { return e.name }
func (e *FuncEmbedder) Dimensions() int { return e.dims }

func (e *FuncEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.fn(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%s: text %d: %w", e.name, i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}
