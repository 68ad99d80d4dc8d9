package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polascin/renaltales-backend/internal/config"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// NewPool creates the PostgreSQL connection pool shared by all repositories.
// It parses the connection string, applies pool settings, and pings the
// database for fail-fast validation. Every failure wraps domain.ErrConnection
// and is meant to be fatal: there is no retry.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("%w: parse database DSN: %w", domain.ErrConnection, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create connection pool: %w", domain.ErrConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrConnection, err)
	}

	return pool, nil
}
