package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groundcheck/groundcheck/internal/cache"
	"github.com/groundcheck/groundcheck/internal/model"
)

// CachedProvider wraps a Provider with a cache keyed by query + topK.
// Caching is this layer's concern only: the pipeline never knows whether
// evidence came from the backend or the cache.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps the provider with the given cache backend
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Retrieve returns cached chunks when available, otherwise queries the
// backend and stores the result. Cache failures degrade to a backend call,
// never to an error.
func (p *CachedProvider) Retrieve(ctx context.Context, query string, topK int) ([]model.EvidenceChunk, error) {
	key := cache.CacheKey(fmt.Sprintf("%s|%s|%d", p.inner.Name(), query, topK))

	if data, found := p.cache.Get(key); found {
		var chunks []model.EvidenceChunk
		if err := json.Unmarshal(data, &chunks); err == nil {
			return chunks, nil
		}
		// Corrupt entry: drop it and fall through to the backend
		_ = p.cache.Delete(key)
	}

	chunks, err := p.inner.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(chunks); err == nil {
		_ = p.cache.Set(key, data, p.ttl)
	}

	return chunks, nil
}
