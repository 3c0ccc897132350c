// Package knowledge provides ranked document snippets for a domain and query.
//
// Each domain (collection) is a directory of plain-text documents under the
// data directory. Documents are split into overlapping chunks, embedded, and
// searched by cosine similarity. Chunk indexes record each chunk's position so
// callers can reassemble multi-chunk passages in document order.
package knowledge

import "context"

// Snippet is one retrieved chunk.
type Snippet struct {
	Text       string            `json:"text"`
	ChunkIndex int               `json:"chunk_index"`
	Source     string            `json:"source"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Retriever returns at most k snippets ranked by relevance. An empty result
// is not an error.
type Retriever interface {
	Search(ctx context.Context, domain, query string, k int) ([]Snippet, error)
}

// Document is a loaded source file.
type Document struct {
	Path    string
	Content string
}

// Chunk is a contiguous slice of a document.
type Chunk struct {
	Index  int       `json:"index"`
	Source string    `json:"source"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}
