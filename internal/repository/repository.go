// Package repository holds the read-only connection to the parish backend
// database.
package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options tune the pool. Zero values keep the defaults.
type Options struct {
	MaxConns         int32
	StatementTimeout time.Duration
}

// DefaultOptions match a handful of concurrent source fetches.
var DefaultOptions = Options{
	MaxConns:         4,
	StatementTimeout: 15 * time.Second,
}

// Repository reads collaborator tables. Every session is read-only.
type Repository struct {
	pool *pgxpool.Pool
}

// New opens and pings a pool against databaseURL.
func New(ctx context.Context, databaseURL string, opts Options) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultOptions.MaxConns
	}
	if opts.StatementTimeout <= 0 {
		opts.StatementTimeout = DefaultOptions.StatementTimeout
	}

	config.MaxConns = opts.MaxConns
	config.MinConns = 0
	config.MaxConnIdleTime = 5 * time.Minute
	params := config.ConnConfig.RuntimeParams
	params["default_transaction_read_only"] = "on"
	params["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	params["application_name"] = "parishdesk-reporting"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Query runs a read query on a pooled connection.
func (r *Repository) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return r.pool.Query(ctx, sql, args...)
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *Repository) Close() {
	r.pool.Close()
}
