package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/scopeagent/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSessionStore implements store.SessionStore using PostgreSQL
type PostgresSessionStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "sessions"
}

// NewPostgresSessionStore creates a new Postgres session store
func NewPostgresSessionStore(ctx context.Context, opts PostgresOptions) (*PostgresSessionStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresSessionStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresSessionStoreWithPool creates a new Postgres session store with an existing pool
// Useful for testing with mocks
func NewPostgresSessionStoreWithPool(pool DBPool, tableName string) *PostgresSessionStore {
	if tableName == "" {
		tableName = "sessions"
	}
	return &PostgresSessionStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			state JSONB NOT NULL,
			version INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresSessionStore) Close() {
	s.pool.Close()
}

// Save stores a snapshot, replacing the previous version for the same id
func (s *PostgresSessionStore) Save(ctx context.Context, rec *store.Record) error {
	query := fmt.Sprintf("INSERT INTO %s (id, status, state, version, updated_at) VALUES ($1, $2, $3, $4, $5) "+
		"ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, state = EXCLUDED.state, "+
		"version = EXCLUDED.version, updated_at = EXCLUDED.updated_at "+
		"WHERE %s.version = EXCLUDED.version - 1", s.tableName, s.tableName)

	tag, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Status,
		[]byte(rec.State),
		rec.Version,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrConflict, rec.ID)
	}
	return nil
}

// Load retrieves a snapshot by session id
func (s *PostgresSessionStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf("SELECT id, status, state, version, updated_at FROM %s WHERE id = $1", s.tableName)

	var rec store.Record
	var state []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Status,
		&state,
		&rec.Version,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	rec.State = state
	return &rec, nil
}

// Delete removes a snapshot
func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// List returns all snapshots, oldest update first
func (s *PostgresSessionStore) List(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf("SELECT id, status, state, version, updated_at FROM %s ORDER BY updated_at ASC, id ASC", s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		var rec store.Record
		var state []byte
		if err := rows.Scan(&rec.ID, &rec.Status, &state, &rec.Version, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.State = state
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}
