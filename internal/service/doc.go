// Package service contains the application use cases. It orchestrates domain
// objects, the persistence port (defined in internal/store) and the read cache
// (internal/cache) to fulfill application features.
//
// Key responsibilities:
//
// 1. Transactional boundaries:
//   - Every mutation runs as one unit of work obtained from a store.Transactor
//   - A task write and its audit log entry commit or roll back together
//
// 2. Caching:
//   - List reads are cached by a deterministic key derived from the filter
//   - Every committed mutation invalidates the cached list namespaces
//   - The cache is an optimization only; its failures are logged, never returned
//
// 3. Error handling:
//   - Expected conditions surface as sentinel errors usable with errors.Is
//   - Failures inside a unit of work are wrapped in *TaskServiceError
//
// The service layer depends on domain entities and the store and cache ports,
// never on a specific database or cache implementation.
package service
