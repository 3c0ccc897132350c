package search

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/rs/zerolog/log"
)

// CachedSearcher memoizes successful searches for a fixed TTL. Queries that
// differ only in case or spacing share an entry.
type CachedSearcher struct {
	next  Searcher
	ttl   time.Duration
	cache *ristretto.Cache[string, any]
}

// NewCached wraps next with an in-process cache bounded by maxBytes of
// result text.
func NewCached(next Searcher, maxBytes int64, ttl time.Duration) (*CachedSearcher, error) {
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters:        maxBytes / 100 * 10,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create search cache")
	}
	return &CachedSearcher{next: next, ttl: ttl, cache: c}, nil
}

func (c *CachedSearcher) Search(ctx context.Context, query string) (any, error) {
	key := cacheKey(query)
	if v, ok := c.cache.Get(key); ok {
		log.Debug().Str("query", query).Msg("search cache hit")
		return v, nil
	}
	v, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, v, cost(v), c.ttl)
	c.cache.Wait()
	return v, nil
}

// Close releases the cache's background goroutines.
func (c *CachedSearcher) Close() {
	c.cache.Close()
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func cost(v any) int64 {
	switch t := v.(type) {
	case string:
		return int64(len(t)) + 1
	case []Result:
		var n int64 = 1
		for _, r := range t {
			n += int64(len(r.Title) + len(r.Link) + len(r.Snippet))
		}
		return n
	default:
		return 1
	}
}
