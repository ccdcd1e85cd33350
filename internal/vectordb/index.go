package vectordb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Aden1ke/Thera/internal/embeddings"
)

// Index is an append-only, in-memory collection of embedded documents
// searched by brute-force cosine similarity.
//
// Documents are only ever appended to the backing slice, so a reader that
// copies the slice header under the read lock can scan it without holding
// the lock. Add embeds outside the lock and publishes the finished
// document in a single append.
type Index[M any] struct {
	name     string
	embedder embeddings.Embedder

	mu          sync.RWMutex
	docs        []Document[M]
	dims        int
	initialized bool
}

// New creates an empty, uninitialized index.
func New[M any](name string, embedder embeddings.Embedder) *Index[M] {
	return &Index[M]{name: name, embedder: embedder}
}

// Name returns the index name used in logs and errors.
func (x *Index[M]) Name() string { return x.name }

// Len returns the number of visible documents.
func (x *Index[M]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Initialized reports whether Initialize or a successful Add has run.
func (x *Index[M]) Initialized() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.initialized
}

// Initialize embeds every input in one batch and replaces the contents of
// the index. Any failure leaves the previous contents untouched.
func (x *Index[M]) Initialize(ctx context.Context, inputs []Input[M]) error {
	docs := make([]Document[M], len(inputs))
	dims := 0

	if len(inputs) > 0 {
		texts := make([]string, len(inputs))
		for i, in := range inputs {
			texts[i] = in.Text
		}

		vectors, err := x.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIndexInit, x.name, err)
		}
		if len(vectors) != len(inputs) {
			return fmt.Errorf("%w: %s: embedder returned %d vectors for %d documents",
				ErrIndexInit, x.name, len(vectors), len(inputs))
		}

		dims = len(vectors[0])
		for i, in := range inputs {
			if len(vectors[i]) == 0 || len(vectors[i]) != dims {
				return fmt.Errorf("%w: %s: document %d: %w", ErrIndexInit, x.name, i, ErrDimensionMismatch)
			}
			docs[i] = Document[M]{Vector: vectors[i], Text: in.Text, Metadata: in.Metadata}
		}
	}

	x.mu.Lock()
	x.docs = docs
	x.dims = dims
	x.initialized = true
	x.mu.Unlock()
	return nil
}

// Add embeds text and appends one document. On failure the index is
// unchanged.
func (x *Index[M]) Add(ctx context.Context, text string, meta M) error {
	vec, err := embeddings.EmbedOne(ctx, x.embedder, text)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEmbed, x.name, err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("%w: %s: empty vector", ErrEmbed, x.name)
	}

	doc := Document[M]{Vector: vec, Text: text, Metadata: meta}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dims != 0 && len(vec) != x.dims {
		return fmt.Errorf("%s: got %d, want %d: %w", x.name, len(vec), x.dims, ErrDimensionMismatch)
	}
	x.docs = append(x.docs, doc)
	x.dims = len(vec)
	x.initialized = true
	return nil
}

// Query returns the topK documents most similar to text, highest first.
// Equal scores keep insertion order.
func (x *Index[M]) Query(ctx context.Context, text string, topK int) ([]SearchResult[M], error) {
	x.mu.RLock()
	docs := x.docs
	initialized := x.initialized
	x.mu.RUnlock()

	if !initialized {
		return nil, fmt.Errorf("%s: %w", x.name, ErrNotInitialized)
	}
	if topK <= 0 || len(docs) == 0 {
		return []SearchResult[M]{}, nil
	}

	qvec, err := embeddings.EmbedOne(ctx, x.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEmbed, x.name, err)
	}
	if len(qvec) != len(docs[0].Vector) {
		return nil, fmt.Errorf("%s: query has %d dimensions, index has %d: %w",
			x.name, len(qvec), len(docs[0].Vector), ErrDimensionMismatch)
	}

	results := make([]SearchResult[M], len(docs))
	for i, d := range docs {
		results[i] = SearchResult[M]{Document: d, Similarity: cosineSimilarity(qvec, d.Vector)}
	}

	slices.SortStableFunc(results, func(a, b SearchResult[M]) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
