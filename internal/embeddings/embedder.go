package embeddings

import (
	"context"
	"fmt"
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	// Embed generates one vector per input text, in order. Implementations
	// batch internally where the provider supports it.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors,
	// or 0 if the model does not advertise it.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%s returned %d embeddings for 1 text", e.Name(), len(vecs))
	}
	return vecs[0], nil
}
