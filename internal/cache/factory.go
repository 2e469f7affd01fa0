package cache

import (
	"fmt"

	"github.com/groundcheck/groundcheck/internal/model"
)

// New creates a cache backend from configuration. Returns nil when caching
// is disabled.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.TTL, cfg.TTL/2), nil

	case "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil

	case "layered":
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL), nil

	case "redis":
		c, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
