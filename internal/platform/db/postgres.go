package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the ledger workload: short transactional writes plus the
// read fan-out of the daily report.
const (
	poolMaxConns        = int32(16)
	poolMinConns        = int32(2)
	poolMaxConnIdleTime = 5 * time.Minute
)

// New creates the PostgreSQL connection pool every repository runs on.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}
	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.MaxConnIdleTime = poolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return pool, nil
}
