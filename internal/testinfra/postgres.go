// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the Postgres image used for integration tests.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultPostgresPort is the container port Postgres listens on.
	DefaultPostgresPort = "5432"

	postgresUser     = "gatehouse"
	postgresPassword = "gatehouse"
	postgresDB       = "gatehouse"
)

// PlatformSchema creates the tables the access-control layers read. It
// mirrors the columns of the platform's own migrations.
const PlatformSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	onboarding_completed BOOLEAN NOT NULL DEFAULT false,
	role TEXT,
	subscription_tier TEXT
);
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT
);
CREATE TABLE IF NOT EXISTS team_members (
	team_id TEXT NOT NULL REFERENCES teams(id),
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	PRIMARY KEY (team_id, user_id)
);
CREATE TABLE IF NOT EXISTS landing_pages (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	team_id TEXT
);
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	team_id TEXT
);
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	team_id TEXT
);
CREATE TABLE IF NOT EXISTS custom_domains (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL
)`

// PostgresContainer is a running Postgres for tests.
type PostgresContainer struct {
	testcontainers.Container
	DSN string
}

// PostgresOption configures the Postgres container.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	schema       bool
	startTimeout time.Duration
}

// WithPostgresImage sets a custom Postgres image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) {
		c.image = image
	}
}

// WithSchema applies PlatformSchema after start.
func WithSchema() PostgresOption {
	return func(c *postgresConfig) {
		c.schema = true
	}
}

// WithStartTimeout sets the timeout for waiting for Postgres to start.
func WithStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) {
		c.startTimeout = timeout
	}
}

// NewPostgresContainer creates and starts a Postgres container.
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The init script restarts the server once, so the ready line appears twice.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort+"/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	pg := &PostgresContainer{
		Container: container,
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser, postgresPassword, host, port.Port(), postgresDB),
	}

	if cfg.schema {
		if err := pg.Exec(ctx, PlatformSchema); err != nil {
			container.Terminate(ctx) //nolint:errcheck
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return pg, nil
}

// Exec runs sql on a fresh connection. Multiple statements are allowed when
// no arguments are passed.
func (p *PostgresContainer) Exec(ctx context.Context, sql string, args ...any) error {
	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
