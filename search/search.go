// Package search turns a free-text query into raw web results and normalizes
// whatever shape a provider returns into an ordered list of Result values.
package search

import (
	"context"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/config"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/rs/zerolog/log"
)

// ErrNoAPIKey is returned when a provider that needs a key has none.
var ErrNoAPIKey = errors.Sentinel("search api key is not configured")

// Searcher returns unstructured results for a query: a JSON string, a plain
// string, a slice or a map. Callers run the value through Normalize.
type Searcher interface {
	Search(ctx context.Context, query string) (any, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string) (any, error)

func (f SearcherFunc) Search(ctx context.Context, query string) (any, error) {
	return f(ctx, query)
}

// Result is one normalized search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Disabled never finds anything.
type Disabled struct{}

func (Disabled) Search(context.Context, string) (any, error) { return nil, nil }

// Fallback tries Primary and, when it fails, Secondary.
type Fallback struct {
	Primary   Searcher
	Secondary Searcher
}

func (f Fallback) Search(ctx context.Context, query string) (any, error) {
	raw, err := f.Primary.Search(ctx, query)
	if err == nil {
		return raw, nil
	}
	log.Warn().Err(err).Str("query", query).Msg("web search failed, using fallback searcher")
	return f.Secondary.Search(ctx, query)
}

// New builds the searcher described by cfg. A serpapi provider without a key
// degrades to the completion-backed fallback. Results are cached when
// cfg.CacheTTL is positive.
func New(cfg config.SearchConfig, c llm.Completer) (Searcher, error) {
	var s Searcher
	switch strings.ToLower(cfg.Provider) {
	case "", "serpapi":
		direct := &LLMFallback{Completer: c}
		serp, err := NewSerpAPI(cfg.APIKey, cfg.Engine, cfg.MaxResults)
		if errors.Is(err, ErrNoAPIKey) {
			log.Warn().Msg("no SerpAPI key provided, answering web queries from general knowledge")
			s = direct
			break
		}
		if err != nil {
			return nil, err
		}
		s = Fallback{Primary: serp, Secondary: direct}
	case "llm":
		s = &LLMFallback{Completer: c}
	case "none":
		s = Disabled{}
	default:
		return nil, errors.New("unknown search provider %q", cfg.Provider)
	}

	if cfg.CacheTTL > 0 {
		cached, err := NewCached(s, cfg.CacheBytes, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		s = cached
	}
	return s, nil
}
