package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint passed to SCAN while deleting a namespace.
const scanBatchSize = 100

// OpenRedis creates a Redis client from cfg and verifies the connection.
func OpenRedis(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to ping redis at %s: %w", ErrUnavailable, cfg.RedisAddr, err)
	}
	return client, nil
}

// RedisCache is a Cache stored in Redis. Expiry is delegated to Redis TTLs.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// Ensure RedisCache implements Cache interface
var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a cache on top of client. Every key is stored with
// prefix prepended, so several deployments can share one Redis database.
// If logger is nil, a default logger will be used.
func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("component", "redis_cache")),
	}
}

// Get implements Cache.Get
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get %q: %w", ErrUnavailable, key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error for key %q: %w", key, err)
	}
	return true, nil
}

// Set implements Cache.Set
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error for key %q: %w", key, err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %w", ErrUnavailable, key, err)
	}
	return nil
}

// Delete implements Cache.Delete
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: delete %q: %w", ErrUnavailable, key, err)
	}
	return nil
}

// DeleteNamespace implements Cache.DeleteNamespace. It walks the keyspace
// with SCAN rather than KEYS so a large namespace never blocks the server.
func (c *RedisCache) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := validateKey(namespace); err != nil {
		return err
	}

	pattern := c.namespacePattern(namespace)
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("%w: scan namespace %q: %w", ErrUnavailable, namespace, err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: delete namespace %q: %w", ErrUnavailable, namespace, err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("deleted cache namespace",
		slog.String("namespace", namespace),
		slog.Int("deleted", deleted))
	return nil
}

// namespacePattern is the SCAN MATCH pattern for every key in namespace.
// Prefix and namespace match literally.
func (c *RedisCache) namespacePattern(namespace string) string {
	return escapeGlob(c.prefix+namespace+NamespaceSeparator) + "*"
}

// escapeGlob escapes the glob metacharacters understood by Redis MATCH.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping checks that Redis answers.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
