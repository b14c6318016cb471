package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallnest/scopeagent/config"
	"github.com/smallnest/scopeagent/log"
	"github.com/smallnest/scopeagent/model"
	"github.com/smallnest/scopeagent/scope"
	"github.com/smallnest/scopeagent/search"
	"github.com/smallnest/scopeagent/session"
	"github.com/smallnest/scopeagent/store"
	"github.com/smallnest/scopeagent/store/memory"
	"github.com/smallnest/scopeagent/store/postgres"
	"github.com/smallnest/scopeagent/store/redis"
	"github.com/smallnest/scopeagent/store/sqlite"
)

// newController builds the dialogue controller from configuration.
func newController(ctx context.Context, cfg *config.Config, logger log.Logger) (*scope.Controller, error) {
	inv, err := model.New(ctx, model.Options{
		Provider:    cfg.Model.Provider,
		Model:       cfg.Model.Name,
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Temperature: cfg.Model.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	opts := []scope.Option{
		scope.WithMaxClarifications(cfg.MaxClarifications),
		scope.WithCallTimeout(cfg.Model.Timeout),
		scope.WithLogger(logger),
	}
	if cfg.Research.Enabled {
		s, err := search.New(search.Options{
			Provider:   cfg.Research.Provider,
			APIKey:     cfg.Research.APIKey,
			BaseURL:    cfg.Research.BaseURL,
			MaxResults: cfg.Research.MaxResults,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create search provider: %w", err)
		}
		opts = append(opts, scope.WithResearch(s))
	}
	return scope.NewController(inv, opts...), nil
}

// newStore opens the configured session store. The returned func releases it.
func newStore(ctx context.Context, cfg config.StoreConfig) (store.SessionStore, func(), error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return memory.NewMemorySessionStore(), func() {}, nil
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		s, err := sqlite.NewSqliteSessionStore(sqlite.SqliteOptions{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StoreRedis:
		s := redis.NewRedisSessionStore(redis.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.TTL,
		})
		return s, func() { s.Close() }, nil
	case config.StorePostgres:
		s, err := postgres.NewPostgresSessionStore(ctx, postgres.PostgresOptions{ConnString: cfg.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newManager wires controller and store into a session manager.
func newManager(ctx context.Context, opts *rootOptions) (*session.Manager, func(), error) {
	c, err := newController(ctx, opts.cfg, opts.logger)
	if err != nil {
		return nil, nil, err
	}
	s, closeStore, err := newStore(ctx, opts.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	opts.logger.Debug("using %s session store, provider %s", opts.cfg.Store.Backend, opts.cfg.Model.Provider)
	return session.NewManager(c, s, session.WithLogger(opts.logger)), closeStore, nil
}
