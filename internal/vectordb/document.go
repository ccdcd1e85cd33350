package vectordb

// Input is a document waiting to be embedded into an index.
type Input[M any] struct {
	Text     string
	Metadata M
}

// Document is one stored entry in an Index. Text and Metadata never change
// after the document becomes visible to queries.
type Document[M any] struct {
	Vector   []float32
	Text     string
	Metadata M
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult[M any] struct {
	Document   Document[M]
	Similarity float32
}

// Texts returns the text of every result, in order.
func Texts[M any](results []SearchResult[M]) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Text
	}
	return out
}
