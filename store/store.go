package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a session id.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned by Save when the stored snapshot is not the one the
// record was derived from.
var ErrConflict = errors.New("session was modified concurrently")

// Record is a persisted session snapshot. State holds the session encoded as JSON;
// Status is duplicated out of it so backends can list sessions without decoding.
type Record struct {
	ID        string          `json:"id"`
	State     json.RawMessage `json:"state"`
	Status    string          `json:"status"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionStore defines the interface for session persistence
type SessionStore interface {
	// Save creates the snapshot for rec.ID, or replaces one whose Version is
	// rec.Version-1. Any other stored version yields ErrConflict.
	Save(ctx context.Context, rec *Record) error

	// Load retrieves a snapshot by session id
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes a snapshot
	Delete(ctx context.Context, id string) error

	// List returns all snapshots, oldest update first
	List(ctx context.Context) ([]*Record, error)
}
