package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Common cache errors.
var (
	// ErrUnavailable indicates the cache backend could not serve the request.
	ErrUnavailable = errors.New("cache unavailable")

	// ErrInvalidKey indicates an empty key or namespace.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidTTL indicates a non-positive time-to-live.
	ErrInvalidTTL = errors.New("invalid cache ttl")
)

// NamespaceSeparator joins a namespace to the rest of a key.
const NamespaceSeparator = ":"

// Cache is a key-value store for serializable values with per-key expiry.
type Cache interface {
	// Get decodes the value stored under key into dest.
	// It returns false with a nil error on a miss or an expired entry.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteNamespace removes every key that belongs to namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// InNamespace reports whether key belongs to namespace.
func InNamespace(key, namespace string) bool {
	return strings.HasPrefix(key, namespace+NamespaceSeparator)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
