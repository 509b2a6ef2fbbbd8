package aiclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize bounds the query-embedding cache's entry count.
const DefaultQueryCacheSize = 1000

// CachedQueryEmbedder wraps an Embedder with an LRU cache in front of
// EmbedQuery. Repeated searches for the same query text skip the remote
// embedding call entirely.
type CachedQueryEmbedder struct {
	Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedQueryEmbedder wraps inner with a query-embedding cache bounded
// at cacheSize entries (DefaultQueryCacheSize if <= 0).
func NewCachedQueryEmbedder(inner Embedder, cacheSize int) *CachedQueryEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultQueryCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedQueryEmbedder{Embedder: inner, cache: cache}
}

// EmbedQuery returns the cached vector for text if present, otherwise
// delegates to the wrapped embedder and caches the result.
func (c *CachedQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := queryCacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.Embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

func queryCacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
