// Package retrieval supplies evidence chunks for a query. Providers
// normalize their backend's payload into the canonical model.EvidenceChunk
// so the rest of the pipeline never handles raw provider output.
package retrieval

import (
	"context"
	"fmt"

	"github.com/groundcheck/groundcheck/internal/cache"
	"github.com/groundcheck/groundcheck/internal/model"
)

// Provider defines the interface for evidence providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Retrieve returns up to topK evidence chunks ordered by relevance.
	// An empty result is a valid, non-error response.
	Retrieve(ctx context.Context, query string, topK int) ([]model.EvidenceChunk, error)
}

// New creates an evidence provider from configuration, wrapping it with
// the configured cache layer.
func New(cfg model.RetrievalConfig, cacheCfg model.CacheConfig) (Provider, error) {
	var provider Provider
	var err error

	switch cfg.Provider {
	case "", "local":
		provider, err = NewLocalStore(cfg.CorpusPath)
	case "weaviate":
		provider, err = NewWeaviateProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown retrieval provider: %s (supported: local, weaviate)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cacheCfg)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return provider, nil
	}
	return NewCachedProvider(provider, c, cacheCfg.TTL), nil
}
