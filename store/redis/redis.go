package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/scopeagent/store"
)

// RedisSessionStore implements store.SessionStore using Redis
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "scope:"
	TTL      time.Duration // Expiration for idle sessions, default 0 (no expiration)
}

// NewRedisSessionStore creates a new Redis session store
func NewRedisSessionStore(opts RedisOptions) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "scope:"
	}

	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Close closes the client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", s.prefix, id)
}

func (s *RedisSessionStore) indexKey() string {
	return s.prefix + "sessions"
}

// Save stores a snapshot and refreshes its TTL. The version check and the write
// run under WATCH, so a concurrent writer aborts the transaction.
func (s *RedisSessionStore) Save(ctx context.Context, rec *store.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := s.sessionKey(rec.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var prev store.Record
			if err := json.Unmarshal(cur, &prev); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			if prev.Version != rec.Version-1 {
				return fmt.Errorf("%w: %s at version %d", store.ErrConflict, rec.ID, prev.Version)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.SAdd(ctx, s.indexKey(), rec.ID)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: %s", store.ErrConflict, rec.ID)
	case errors.Is(err, store.ErrConflict):
		return err
	case err != nil:
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by session id
func (s *RedisSessionStore) Load(ctx context.Context, id string) (*store.Record, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

// Delete removes a snapshot
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.sessionKey(id))
	pipe.SRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// List returns all live snapshots, oldest update first. Ids whose snapshot has
// expired are dropped from the index.
func (s *RedisSessionStore) List(ctx context.Context) ([]*store.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return []*store.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	var (
		records []*store.Record
		stale   []any
	)
	for i, result := range results {
		data, ok := result.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var rec store.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
		}
	}

	slices.SortFunc(records, func(a, b *store.Record) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return records, nil
}
