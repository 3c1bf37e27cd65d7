package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bookowl/bookowl/internal/cache"
)

// CachedEmbedder wraps an Embedder with a cache keyed on the input text.
// Question embeddings repeat across sessions; ingestion re-runs repeat
// whole books.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps the embedder with the given cache
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

// Name returns the wrapped embedder's name
func (e *CachedEmbedder) Name() string { return e.inner.Name() }

// Dimension returns the wrapped embedder's dimension
func (e *CachedEmbedder) Dimension() int { return e.inner.Dimension() }

// Embed serves from cache when possible, falling through to the backend
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cache.Key(e.inner.Name() + ":" + text)

	if data, found := e.cache.Get(key); found {
		var vec []float64
		if err := json.Unmarshal(data, &vec); err == nil && len(vec) == e.Dimension() {
			return vec, nil
		}
		// Corrupt entry: drop it and re-embed
		_ = e.cache.Delete(key)
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		_ = e.cache.Set(key, data, e.ttl)
	}
	return vec, nil
}
