// Package database provides PostgreSQL connectivity.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itemhub/itemhub/internal/config"
)

// Pool wraps pgxpool.Pool with additional functionality.
type Pool struct {
	*pgxpool.Pool
}

// Stats represents pool statistics.
type Stats struct {
	MaxConns          int32
	TotalConns        int32
	IdleConns         int32
	AcquiredConns     int32
	AcquireCount      int64
	AcquireDuration   int64
	EmptyAcquireCount int64
}

// NewPool creates a new database connection pool.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	return NewPoolFromDSN(ctx, BuildDSN(cfg), cfg.MaxOpenConns, cfg.MaxIdleConns, cfg)
}

// NewPoolFromDSN creates a pool from a raw connection string. Integration
// tests use this with TEST_DATABASE_URL.
func NewPoolFromDSN(ctx context.Context, dsn string, maxOpen, maxIdle int, cfg *config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if maxOpen > 0 && maxOpen <= 1000 {
		poolConfig.MaxConns = int32(maxOpen)
	} else {
		poolConfig.MaxConns = 10
	}
	if maxIdle > 0 && maxIdle <= 1000 {
		poolConfig.MinConns = int32(maxIdle)
	}
	if cfg != nil {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// BuildDSN constructs a PostgreSQL connection string.
func BuildDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.SSLMode,
	)
}

// Stats returns pool statistics.
func (p *Pool) Stats() *Stats {
	s := p.Pool.Stat()
	return &Stats{
		MaxConns:          s.MaxConns(),
		TotalConns:        s.TotalConns(),
		IdleConns:         s.IdleConns(),
		AcquiredConns:     s.AcquiredConns(),
		AcquireCount:      s.AcquireCount(),
		AcquireDuration:   int64(s.AcquireDuration()),
		EmptyAcquireCount: s.EmptyAcquireCount(),
	}
}

// HealthCheck performs a database health check.
func (p *Pool) HealthCheck(ctx context.Context) error {
	return p.Ping(ctx)
}

// Transact runs fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func (p *Pool) Transact(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
