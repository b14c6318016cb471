package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/scopeagent/store"
)

// SqliteSessionStore implements store.SessionStore using SQLite
type SqliteSessionStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "sessions"
}

// NewSqliteSessionStore opens the database and creates the table if needed
func NewSqliteSessionStore(opts SqliteOptions) (*SqliteSessionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "sessions"
	}

	s := &SqliteSessionStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			state TEXT NOT NULL,
			version INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteSessionStore) Close() error {
	return s.db.Close()
}

// Save stores a snapshot, replacing the previous version for the same id
func (s *SqliteSessionStore) Save(ctx context.Context, rec *store.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, status, state, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			state = excluded.state,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE %s.version = excluded.version - 1
	`, s.tableName, s.tableName)

	res, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Status,
		string(rec.State),
		rec.Version,
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrConflict, rec.ID)
	}
	return nil
}

// Load retrieves a snapshot by session id
func (s *SqliteSessionStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, status, state, version, updated_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return rec, nil
}

// Delete removes a snapshot
func (s *SqliteSessionStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// List returns all snapshots, oldest update first
func (s *SqliteSessionStore) List(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, status, state, version, updated_at
		FROM %s
		ORDER BY updated_at ASC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var rec store.Record
	var state string
	if err := row.Scan(&rec.ID, &rec.Status, &state, &rec.Version, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.State = []byte(state)
	return &rec, nil
}
