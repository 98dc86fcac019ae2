// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package config

import "time"

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment variables
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Authz    AuthzConfig    `koanf:"authz"`
	Checks   ChecksConfig   `koanf:"checks"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
	Security SecurityConfig `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging or production
}

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds the platform database settings. The memory driver
// keeps everything in process and is meant for development.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	SeedDemo        bool          `koanf:"seed_demo"`

	// Circuit breaker around platform reads.
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
}

// Identity providers.
const (
	ProviderJWT     = "jwt"
	ProviderSession = "session"
)

// Session stores.
const (
	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
)

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	Provider string `koanf:"provider"`

	JWTSecret   string        `koanf:"jwt_secret"`
	JWTIssuer   string        `koanf:"jwt_issuer"`
	JWTAudience string        `koanf:"jwt_audience"`
	JWTLeeway   time.Duration `koanf:"jwt_leeway"`
	TokenTTL    time.Duration `koanf:"token_ttl"`

	SessionStore           string        `koanf:"session_store"`
	SessionStorePath       string        `koanf:"session_store_path"`
	SessionTTL             time.Duration `koanf:"session_ttl"`
	SlidingSession         bool          `koanf:"sliding_session"`
	SessionCleanupInterval time.Duration `koanf:"session_cleanup_interval"`

	CookieName   string `koanf:"cookie_name"`
	CookieDomain string `koanf:"cookie_domain"`
	CookieSecure bool   `koanf:"cookie_secure"`
}

// AuthzConfig holds authorization caching settings.
type AuthzConfig struct {
	RoleCacheEnabled     bool          `koanf:"role_cache_enabled"`
	RoleCacheTTL         time.Duration `koanf:"role_cache_ttl"`
	DecisionCacheEnabled bool          `koanf:"decision_cache_enabled"`
	DecisionCacheTTL     time.Duration `koanf:"decision_cache_ttl"`
}

// ChecksConfig holds composer and guard settings.
type ChecksConfig struct {
	// Timeout bounds a whole check. Expiry denies.
	Timeout time.Duration `koanf:"timeout"`

	// OwnershipBatchConcurrency bounds parallel lookups in batch checks.
	OwnershipBatchConcurrency int `koanf:"ownership_batch_concurrency"`

	// FallbackRedirect is used when a denied config names no redirect.
	FallbackRedirect string `koanf:"fallback_redirect"`

	FlashCookieName string `koanf:"flash_cookie_name"`
}

// Audit store names accepted in AuditConfig.Stores.
const (
	AuditStoreMemory   = "memory"
	AuditStorePostgres = "postgres"
	AuditStoreDuckDB   = "duckdb"
	AuditStoreNATS     = "nats"
	AuditStoreChannel  = "channel"
)

// AuditConfig holds audit sink settings.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Stores          []string      `koanf:"stores"`
	BufferSize      int           `koanf:"buffer_size"`
	RateLimit       float64       `koanf:"rate_limit"`
	RateBurst       int           `koanf:"rate_burst"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	LogToStdout     bool          `koanf:"log_to_stdout"`
	MemoryMaxEvents int           `koanf:"memory_max_events"`
	DuckDBPath      string        `koanf:"duckdb_path"`
	NATSURL         string        `koanf:"nats_url"`
	Topic           string        `koanf:"topic"`
}

// HasStore reports whether name is among the configured audit stores.
func (a AuditConfig) HasStore(name string) bool {
	for _, s := range a.Stores {
		if s == name {
			return true
		}
	}
	return false
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}
