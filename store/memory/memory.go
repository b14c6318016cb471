package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/smallnest/scopeagent/store"
)

// MemorySessionStore keeps snapshots in a map. Records are copied on the way in and
// out, so callers never share memory with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]store.Record
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]store.Record),
	}
}

// Save stores a snapshot
func (s *MemorySessionStore) Save(_ context.Context, rec *store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.sessions[rec.ID]; ok && cur.Version != rec.Version-1 {
		return fmt.Errorf("%w: %s at version %d", store.ErrConflict, rec.ID, cur.Version)
	}
	s.sessions[rec.ID] = clone(rec)
	return nil
}

// Load retrieves a snapshot by session id
func (s *MemorySessionStore) Load(_ context.Context, id string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := clone(&rec)
	return &out, nil
}

// Delete removes a snapshot
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns all snapshots, oldest update first
func (s *MemorySessionStore) List(_ context.Context) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*store.Record, 0, len(s.sessions))
	for _, rec := range s.sessions {
		out := clone(&rec)
		records = append(records, &out)
	}
	slices.SortFunc(records, func(a, b *store.Record) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return records, nil
}

func clone(rec *store.Record) store.Record {
	out := *rec
	out.State = slices.Clone(rec.State)
	return out
}
