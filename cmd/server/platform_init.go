// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/config"
	"github.com/tomtom215/gatehouse/internal/database"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/ownership"
)

// platformStore is everything the layers read from the platform database.
type platformStore interface {
	auth.ProfileProvider
	ownership.TeamStore
	ownership.ResourceStore
	Ping(ctx context.Context) error
}

type platform struct {
	platformStore
	pool *pgxpool.Pool
}

// Close releases the connection pool, if any.
func (p *platform) Close() error {
	if pg, ok := p.platformStore.(*database.Postgres); ok {
		pg.Close()
	}
	return nil
}

// initPlatform opens the configured platform database. The memory driver
// optionally seeds the demo tenant.
func initPlatform(ctx context.Context, cfg *config.Config) (*platform, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.DSN = cfg.Database.DSN
		pgCfg.MaxConns = cfg.Database.MaxConns
		pgCfg.MinConns = cfg.Database.MinConns
		pgCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
		pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout
		pgCfg.QueryTimeout = cfg.Database.QueryTimeout
		pgCfg.Breaker.Timeout = cfg.Database.BreakerTimeout
		pgCfg.Breaker.MinRequests = cfg.Database.BreakerMinRequests
		pgCfg.Breaker.FailureRatio = cfg.Database.BreakerFailureRatio

		pg, err := database.NewPostgres(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		return &platform{platformStore: pg, pool: pg.Pool()}, nil

	case config.DriverMemory:
		mem := database.NewMemory()
		if cfg.Database.SeedDemo {
			if err := database.SeedDemo(mem); err != nil {
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
			logging.Info().Msg("Seeded demo tenant into the in-memory platform store")
		} else {
			logging.Warn().Msg("In-memory platform store is empty; every user resolves to the default role")
		}
		return &platform{platformStore: mem}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
