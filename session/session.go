package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/scopeagent/log"
	"github.com/smallnest/scopeagent/scope"
	"github.com/smallnest/scopeagent/store"
)

// ErrNotFound is returned for session ids the store does not know.
var ErrNotFound = errors.New("session not found")

// ErrInvalidID is returned for blank session ids.
var ErrInvalidID = errors.New("session id must not be empty")

// ErrConflict is returned by Send when another process saved the session between
// load and save. The losing round is discarded.
var ErrConflict = store.ErrConflict

// Summary describes a stored session without its conversation.
type Summary struct {
	ID                 string       `json:"id"`
	Status             scope.Status `json:"status"`
	Turns              int          `json:"turns"`
	ClarificationCount int          `json:"clarification_count"`
	Title              string       `json:"title,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Manager is the session boundary: it accepts one utterance at a time for a
// session id, runs the controller on the stored state and saves the result.
// Steps for the same id are serialized within the process; across processes
// sharing a store, the snapshot version rejects the slower writer.
type Manager struct {
	controller *scope.Controller
	store      store.SessionStore
	logger     log.Logger
	newID      func() string

	mu    sync.Mutex
	locks map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithIDGenerator replaces the uuid generator used by Start.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a manager over the given controller and store.
func NewManager(c *scope.Controller, s store.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		controller: c,
		store:      s,
		logger:     log.GetDefaultLogger(),
		newID:      func() string { return uuid.New().String() },
		locks:      make(map[string]*idLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates and stores a fresh session awaiting its first message.
func (m *Manager) Start(ctx context.Context) (*scope.SessionState, error) {
	st := scope.NewSessionState(m.newID())
	if err := m.save(ctx, st, 0); err != nil {
		return nil, err
	}
	m.logger.Info("session %s: started", st.ID)
	return st, nil
}

// Send feeds one user message to session id. An id that has never been seen starts
// a new session. Rejected input (empty text, finished session) leaves the stored
// state unchanged.
func (m *Manager) Send(ctx context.Context, id, text string) (*scope.Reply, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}

	unlock := m.lock(id)
	defer unlock()

	st, version, err := m.load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		st, version = scope.NewSessionState(id), 0
		m.logger.Info("session %s: started on first message", id)
	case err != nil:
		return nil, err
	}

	reply, err := m.controller.Step(ctx, st, text)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	if err := m.save(ctx, st, version+1); err != nil {
		return nil, err
	}
	return reply, nil
}

// Get returns the stored state of session id.
func (m *Manager) Get(ctx context.Context, id string) (*scope.SessionState, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	st, _, err := m.load(ctx, id)
	return st, err
}

// Delete removes session id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}
	unlock := m.lock(id)
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	m.logger.Info("session %s: deleted", id)
	return nil
}

// List summarizes every stored session, oldest update first.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		st, err := scope.UnmarshalState(rec.State)
		if err != nil {
			m.logger.Warn("session %s: skipping unreadable snapshot: %v", rec.ID, err)
			continue
		}
		s := Summary{
			ID:                 rec.ID,
			Status:             st.Status,
			Turns:              len(st.Conversation),
			ClarificationCount: st.ClarificationCount,
			UpdatedAt:          rec.UpdatedAt,
		}
		if st.Brief != nil && !st.Brief.IsError() {
			s.Title = st.Brief.Title()
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Manager) load(ctx context.Context, id string) (*scope.SessionState, int, error) {
	rec, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, 0, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	st, err := scope.UnmarshalState(rec.State)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return st, rec.Version, nil
}

func (m *Manager) save(ctx context.Context, st *scope.SessionState, version int) error {
	data, err := scope.MarshalState(st)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", st.ID, err)
	}
	rec := &store.Record{
		ID:        st.ID,
		State:     data,
		Status:    string(st.Status),
		Version:   version,
		UpdatedAt: st.UpdatedAt,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save session %s: %w", st.ID, err)
	}
	return nil
}

// lock serializes work on one id. Entries are dropped once nobody holds them.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &idLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
