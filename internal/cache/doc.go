// Package cache defines the read-cache port used by the task service and its
// two adapters: an in-process cache built on sturdyc and a Redis cache built
// on go-redis.
//
// Values are stored as JSON, so a cached value is always decoded into a fresh
// destination and callers never share memory with the cache. Keys live in
// namespaces; a whole namespace can be dropped at once with DeleteNamespace,
// which is how the service invalidates every cached page after a write.
package cache
