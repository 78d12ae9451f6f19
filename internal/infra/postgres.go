package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2
)

// PoolConfig sizes the pool behind the pgvector chunk index. Zero values use
// 10 and 2.
type PoolConfig struct {
	MaxConns int
	MinConns int
}

// NewPostgresDB opens the pool for the chunk index and pings it. Every
// connection registers the pgvector types, so the vector extension must exist
// in the database before the first connect.
func NewPostgresDB(ctx context.Context, dsn string, opts ...PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var pc PoolConfig
	if len(opts) > 0 {
		pc = opts[0]
	}
	config.MaxConns = defaultMaxConns
	if pc.MaxConns > 0 {
		config.MaxConns = int32(pc.MaxConns)
	}
	config.MinConns = defaultMinConns
	if pc.MinConns > 0 {
		config.MinConns = int32(pc.MinConns)
	}
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping index database: %w", err)
	}
	return pool, nil
}
