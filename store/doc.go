// Package store persists research scoping sessions between turns.
//
// A session is stored as a single snapshot (Record) keyed by its id and replaced on
// every step. Backends live in sub-packages:
//   - memory: process-local map, the default for the console chat
//   - sqlite: file-based storage via mattn/go-sqlite3
//   - redis: go-redis, with an optional TTL for abandoned sessions
//   - postgres: pgx connection pool
//
// All backends return ErrNotFound for unknown ids from Load and Delete.
package store
