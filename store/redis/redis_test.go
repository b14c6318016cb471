package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/scopeagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisSessionStore(RedisOptions{
		Addr: mr.Addr(),
	})
	defer s.Close()

	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	rec := &store.Record{
		ID:        "sess-1",
		State:     json.RawMessage(`{"id":"sess-1","status":"CLARIFYING"}`),
		Status:    "CLARIFYING",
		Version:   1,
		UpdatedAt: now,
	}
	require.NoError(t, s.Save(ctx, rec))
	assert.True(t, mr.Exists("scope:session:sess-1"))

	loaded, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.Status, loaded.Status)
	assert.JSONEq(t, string(rec.State), string(loaded.State))
	assert.True(t, now.Equal(loaded.UpdatedAt))

	require.NoError(t, s.Save(ctx, &store.Record{ID: "sess-0", State: json.RawMessage(`{}`), UpdatedAt: now.Add(-time.Hour)}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sess-0", list[0].ID)
	assert.Equal(t, "sess-1", list[1].ID)

	require.NoError(t, s.Delete(ctx, "sess-1"))
	_, err = s.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "sess-1"), store.ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRedisSessionStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisSessionStore(RedisOptions{
		Addr:   mr.Addr(),
		Prefix: "test:",
		TTL:    time.Minute,
	})
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &store.Record{ID: "idle", State: json.RawMessage(`{}`)}))
	assert.Equal(t, time.Minute, mr.TTL("test:session:idle"))

	mr.FastForward(2 * time.Minute)

	_, err = s.Load(ctx, "idle")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	members, err := mr.Members("test:sessions")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRedisSessionStore_VersionConflict(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisSessionStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &store.Record{ID: "s", State: json.RawMessage(`{}`), Status: "CLARIFYING", Version: 1}))

	err = s.Save(ctx, &store.Record{ID: "s", State: json.RawMessage(`{}`), Status: "DONE", Version: 1})
	assert.ErrorIs(t, err, store.ErrConflict)

	rec, err := s.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "CLARIFYING", rec.Status)

	require.NoError(t, s.Save(ctx, &store.Record{ID: "s", State: json.RawMessage(`{}`), Status: "DONE", Version: 2}))
	rec, err = s.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
}
