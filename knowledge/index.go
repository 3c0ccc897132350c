package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// IndexOptions configure an Index.
type IndexOptions struct {
	DataDir      string
	IndexDir     string // empty disables persistence
	Patterns     []string
	ChunkSize    int
	ChunkOverlap int
	Embedder     Embedder
	// EmbedderID names the embedding model; changing it invalidates persisted indexes.
	EmbedderID string
}

// Index is an in-memory vector index with one collection per domain. A
// collection is built on first use and persisted to IndexDir.
type Index struct {
	opts    IndexOptions
	mu      sync.RWMutex
	domains map[string][]Chunk
	group   singleflight.Group
}

type persistedIndex struct {
	Fingerprint string  `json:"fingerprint"`
	Chunks      []Chunk `json:"chunks"`
}

func NewIndex(opts IndexOptions) *Index {
	if opts.Embedder == nil {
		opts.Embedder = HashEmbedder{}
		opts.EmbedderID = "hash"
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	return &Index{opts: opts, domains: make(map[string][]Chunk)}
}

// Search returns the k chunks most similar to query, best first.
func (ix *Index) Search(ctx context.Context, domain, query string, k int) ([]Snippet, error) {
	chunks, err := ix.collection(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || k <= 0 {
		return nil, nil
	}

	qv, err := ix.opts.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}

	type scored struct {
		chunk *Chunk
		score float64
	}
	ranked := make([]scored, len(chunks))
	for i := range chunks {
		ranked[i] = scored{chunk: &chunks[i], score: cosine(qv, chunks[i].Vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunk.Index < ranked[j].chunk.Index
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Snippet, len(ranked))
	for i, r := range ranked {
		out[i] = Snippet{
			Text:       r.chunk.Text,
			ChunkIndex: r.chunk.Index,
			Source:     r.chunk.Source,
			Score:      r.score,
			Metadata:   map[string]string{"domain": domain, "chunkIndex": strconv.Itoa(r.chunk.Index)},
		}
	}
	log.Debug().Str("domain", domain).Int("results", len(out)).Msg("knowledge search")
	return out, nil
}

// Build loads (or rebuilds) a collection and returns its chunk count.
func (ix *Index) Build(ctx context.Context, domain string) (int, error) {
	chunks, err := ix.collection(ctx, domain)
	return len(chunks), err
}

func (ix *Index) collection(ctx context.Context, domain string) ([]Chunk, error) {
	ix.mu.RLock()
	chunks, ok := ix.domains[domain]
	ix.mu.RUnlock()
	if ok {
		return chunks, nil
	}

	v, err, _ := ix.group.Do(domain, func() (interface{}, error) {
		chunks, err := ix.build(ctx, domain)
		if err != nil {
			return nil, err
		}
		ix.mu.Lock()
		ix.domains[domain] = chunks
		ix.mu.Unlock()
		return chunks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Chunk), nil
}

func (ix *Index) build(ctx context.Context, domain string) ([]Chunk, error) {
	dir := filepath.Join(ix.opts.DataDir, domain)
	fp, err := fingerprint(dir, ix.opts.Patterns,
		fmt.Sprintf("%s|%d|%d", ix.opts.EmbedderID, ix.opts.ChunkSize, ix.opts.ChunkOverlap))
	if err != nil {
		return nil, err
	}

	if cached, ok := ix.loadPersisted(domain, fp); ok {
		log.Info().Str("domain", domain).Int("chunks", len(cached)).Msg("loaded existing knowledge index")
		return cached, nil
	}

	docs, err := LoadDocuments(dir, ix.opts.Patterns)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		log.Info().Str("domain", domain).Str("dir", dir).Msg("no documents found for domain")
		return []Chunk{}, nil
	}

	var chunks []Chunk
	for _, doc := range docs {
		for _, text := range Split(doc.Content, ix.opts.ChunkSize, ix.opts.ChunkOverlap) {
			vec, err := ix.opts.Embedder.Embed(ctx, text)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to embed chunk of %s", doc.Path)
			}
			chunks = append(chunks, Chunk{Index: len(chunks), Source: doc.Path, Text: text, Vector: vec})
		}
	}
	log.Info().Str("domain", domain).Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("built knowledge index")

	if err := ix.persist(domain, persistedIndex{Fingerprint: fp, Chunks: chunks}); err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("could not persist knowledge index")
	}
	return chunks, nil
}

func (ix *Index) indexPath(domain string) string {
	return filepath.Join(ix.opts.IndexDir, domain+".json")
}

func (ix *Index) loadPersisted(domain, fp string) ([]Chunk, bool) {
	if ix.opts.IndexDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(ix.indexPath(domain))
	if err != nil {
		return nil, false
	}
	var p persistedIndex
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("ignoring unreadable knowledge index")
		return nil, false
	}
	if p.Fingerprint != fp {
		return nil, false
	}
	return p.Chunks, true
}

func (ix *Index) persist(domain string, p persistedIndex) error {
	if ix.opts.IndexDir == "" {
		return nil
	}
	if err := os.MkdirAll(ix.opts.IndexDir, 0o755); err != nil {
		return errors.Wrapf(err, "could not create index directory")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize index")
	}
	return os.WriteFile(ix.indexPath(domain), data, 0o644)
}
