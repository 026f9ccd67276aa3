// Package db stores registered mail stores and calendar appointments in PostgreSQL.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdavid/invitesweep/internal/config"
)

// The sweep runs one item at a time and issues one statement at a time, so a
// single connection does the work. The spare covers a lookup made while a
// calendar action is in flight, e.g. the store read in RespondTentative.
const (
	maxConns        = 2
	minConns        = 1
	maxConnIdleTime = 5 * time.Minute
)

// NewConnection opens the calendar database pool and checks that it answers.
// A run lasts minutes, so connections are never recycled for age.
func NewConnection(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// CloseConnection closes the given database connection pool.
func CloseConnection(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
