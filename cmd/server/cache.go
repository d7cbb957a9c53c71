package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/taskr-api/internal/cache"
	"github.com/phrazzld/taskr-api/internal/config"
)

// setupCache builds the configured read cache. The returned closer releases
// the backend's connections; it is nil for the in-process cache.
func setupCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Cache, io.Closer, error) {
	switch cfg.Driver {
	case config.CacheDriverMemory:
		memCfg := cache.DefaultMemoryConfig()
		memCfg.Capacity = cfg.Capacity
		for _, ttl := range []time.Duration{cfg.ListTTL(), cfg.AdminTTL()} {
			if ttl > memCfg.MaxTTL {
				memCfg.MaxTTL = ttl
			}
		}
		c, err := cache.NewMemoryCache(memCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		logger.Info("Memory cache initialized", "capacity", memCfg.Capacity)
		return c, nil, nil

	case config.CacheDriverRedis:
		client, err := cache.OpenRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewRedisCache(client, cfg.RedisPrefix, logger)
		logger.Info("Redis cache initialized", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}
