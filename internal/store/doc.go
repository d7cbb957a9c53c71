// Package store defines the persistence port of the application: the task and
// task log store interfaces, the DBTX abstraction over connections and
// transactions, and the unit-of-work types that let the service layer run
// several writes atomically without knowing which backend is underneath.
package store
