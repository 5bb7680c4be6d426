// Package bootstrap opens the storage backends shared by the server and the
// importer.
package bootstrap

import (
	"context"
	"fmt"

	"weekmenu/backend/internal/cache"
	"weekmenu/backend/internal/config"
	"weekmenu/backend/internal/logging"
	"weekmenu/backend/internal/store"
	"weekmenu/backend/internal/store/memory"
	pgstore "weekmenu/backend/internal/store/postgres"
)

type Resources struct {
	Repo          store.Repository
	ShoppingCache cache.ShoppingListCache
	closers       []func() error
}

// Open picks postgres when DATABASE_URL is set and the seeded in-memory store
// otherwise. A configured but unreachable postgres is an error; an
// unreachable redis only downgrades to the no-op cache.
func Open(ctx context.Context, cfg config.Config) (*Resources, error) {
	res := &Resources{ShoppingCache: cache.NoopShoppingListCache{}}

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		res.Repo = pg
		res.closers = append(res.closers, pg.Close)
		logging.Info().Str("repository", "postgres").Msg("storage ready")
	} else {
		res.Repo = memory.NewSeeded()
		logging.Info().Str("repository", "memory").Msg("storage ready")
	}

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisShoppingListCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			_ = redisCache.Close()
			logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using noop cache")
		} else {
			res.ShoppingCache = redisCache
			res.closers = append(res.closers, redisCache.Close)
			logging.Info().Str("cache", "redis").Msg("shopping list cache ready")
		}
	}

	return res, nil
}

// Close releases everything Open acquired, in reverse order.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logging.Warn().Err(err).Msg("close error")
		}
	}
	r.closers = nil
}
