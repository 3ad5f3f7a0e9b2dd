package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/webitel/im-delivery-service/config"
	"github.com/webitel/im-delivery-service/internal/cache"
	"go.uber.org/fx"
)

var _ cache.Store = (*Store)(nil)

func newPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newStore(lc fx.Lifecycle, pool *pgxpool.Pool) (*Store, error) {
	store := New(pool)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Migrate(ctx)
		},
	})

	return store, nil
}

func asCacheStore(s *Store) cache.Store { return s }

var Module = fx.Module("postgres",
	fx.Provide(
		newPool,
		newStore,
		asCacheStore,
	),
)
