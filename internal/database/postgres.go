// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/metrics"
)

// Querier is the subset of *pgxpool.Pool used by Postgres.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
	QueryTimeout    time.Duration
	Breaker         BreakerConfig
}

// DefaultPostgresConfig returns sensible defaults. DSN must still be set.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		ConnectTimeout:  5 * time.Second,
		QueryTimeout:    3 * time.Second,
		Breaker:         DefaultBreakerConfig(),
	}
}

// Postgres reads platform data through a pgx pool.
type Postgres struct {
	db           Querier
	pool         *pgxpool.Pool
	breaker      *readBreaker
	queryTimeout time.Duration
}

// NewPostgres connects a pool and verifies it with a ping.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres DSN is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout+time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := NewPostgresWithQuerier(pool, cfg)
	p.pool = pool

	logging.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("Connected to platform database")
	return p, nil
}

// NewPostgresWithQuerier builds a Postgres over an existing querier, such
// as a pool owned elsewhere or a test double.
func NewPostgresWithQuerier(db Querier, cfg PostgresConfig) *Postgres {
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig()
	}
	return &Postgres{
		db:           db,
		breaker:      newReadBreaker(cfg.Breaker),
		queryTimeout: cfg.QueryTimeout,
	}
}

// Pool returns the underlying pool, or nil when built over a querier.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Querier returns the querier used for reads.
func (p *Postgres) Querier() Querier {
	return p.db
}

// BreakerState returns the read breaker state name.
func (p *Postgres) BreakerState() string {
	return p.breaker.State()
}

// Ping checks connectivity. It bypasses the breaker so health checks see
// the real state.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool != nil {
		return p.pool.Ping(ctx)
	}
	_, err := p.db.Exec(ctx, "SELECT 1")
	return err
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.queryTimeout)
}

// SelectOne returns the named columns of the first row of table matching
// every filter. Identifiers are validated and quoted. It returns
// ErrNotFound when nothing matches.
func (p *Postgres) SelectOne(ctx context.Context, table string, columns []string, filters map[string]any) (map[string]any, error) {
	sql, args, err := buildSelectOne(table, columns, filters)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row, err := castResult[map[string]any](p.breaker.execute(func() (interface{}, error) {
		ctx, cancel := p.withTimeout(ctx)
		defer cancel()

		rows, err := p.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
		}
		if err != nil {
			return nil, err
		}
		return row, nil
	}))
	p.record("select", table, start, err)
	return row, err
}

// selectMany runs a read returning every row as a map.
func (p *Postgres) selectMany(ctx context.Context, table, sql string, args ...any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := castResult[[]map[string]any](p.breaker.execute(func() (interface{}, error) {
		ctx, cancel := p.withTimeout(ctx)
		defer cancel()

		rows, err := p.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToMap)
	}))
	p.record("select", table, start, err)
	return rows, err
}

func (p *Postgres) record(op, table string, start time.Time, err error) {
	if isExpected(err) {
		err = nil
	}
	metrics.RecordDBQuery(op, table, time.Since(start), err, classifyError)
}

// stringValue converts a scanned column to text. uuid columns arrive as
// 16-byte arrays.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case [16]byte:
		return uuid.UUID(t).String()
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func boolValue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
