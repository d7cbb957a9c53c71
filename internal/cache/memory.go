package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig holds the settings of the in-process cache.
type MemoryConfig struct {
	// Capacity is the maximum number of entries held across all shards.
	Capacity int

	// NumShards is the number of independently locked shards.
	NumShards int

	// MaxTTL bounds the lifetime of every entry. A Set with a longer ttl is
	// still evicted after MaxTTL.
	MaxTTL time.Duration

	// EvictionPercentage is the share of a full shard evicted to make room.
	EvictionPercentage int
}

// DefaultMemoryConfig returns a MemoryConfig suitable for a single API process.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          64,
		MaxTTL:             10 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks that every setting is usable by sturdyc.
func (c MemoryConfig) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("memory cache: capacity must be greater than 0")
	case c.NumShards <= 0:
		return fmt.Errorf("memory cache: shard count must be greater than 0")
	case c.MaxTTL <= 0:
		return fmt.Errorf("memory cache: max ttl must be greater than 0")
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return fmt.Errorf("memory cache: eviction percentage must be between 1 and 100")
	}
	return nil
}

// memoryEntry is the stored form of a value. sturdyc applies one TTL to the
// whole client, so the per-key expiry travels with the entry.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache backed by a sharded sturdyc client.
type MemoryCache struct {
	client *sturdyc.Client[memoryEntry]
	now    func() time.Time
	logger *slog.Logger
}

// Ensure MemoryCache implements Cache interface
var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-process cache.
// If logger is nil, a default logger will be used.
func NewMemoryCache(cfg MemoryConfig, logger *slog.Logger) (*MemoryCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := sturdyc.New[memoryEntry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.MaxTTL,
		cfg.EvictionPercentage,
	)

	return &MemoryCache{
		client: client,
		now:    time.Now,
		logger: logger.With(slog.String("component", "memory_cache")),
	}, nil
}

// Get implements Cache.Get
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	entry, ok := c.client.Get(key)
	if !ok {
		return false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.client.Delete(key)
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error for key %q: %w", key, err)
	}
	return true, nil
}

// Set implements Cache.Set
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error for key %q: %w", key, err)
	}

	c.client.Set(key, memoryEntry{data: data, expiresAt: c.now().Add(ttl)})
	return nil
}

// Delete implements Cache.Delete
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	c.client.Delete(key)
	return nil
}

// DeleteNamespace implements Cache.DeleteNamespace
func (c *MemoryCache) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := validateKey(namespace); err != nil {
		return err
	}

	deleted := 0
	for _, key := range c.client.ScanKeys() {
		if InNamespace(key, namespace) {
			c.client.Delete(key)
			deleted++
		}
	}

	c.logger.Debug("deleted cache namespace",
		slog.String("namespace", namespace),
		slog.Int("deleted", deleted))
	return nil
}

// Size returns the number of entries currently held, including expired
// entries that have not been evicted yet.
func (c *MemoryCache) Size() int {
	return c.client.Size()
}
