//go:build integration

// Package testdb provides utilities for tests that run against a real
// PostgreSQL database.
//
// Tests get a connection with GetTestDB, which applies the embedded migrations
// once per process, and isolate their writes with WithTx: the transaction is
// rolled back when the test function returns, so tests can run in parallel
// against the same schema. Tests that must commit (for example to exercise a
// Transactor) clean up after themselves with CleanupTasks.
//
// The database URL comes from DATABASE_URL or TASKR_TEST_DB_URL; when neither
// is set the tests are skipped.
package testdb
