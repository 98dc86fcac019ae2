// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gatehouse/config.yaml",
	"/etc/gatehouse/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:              DriverMemory,
			MaxConns:            10,
			MinConns:            1,
			MaxConnLifetime:     time.Hour,
			ConnectTimeout:      5 * time.Second,
			QueryTimeout:        3 * time.Second,
			BreakerTimeout:      30 * time.Second,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
		},
		Auth: AuthConfig{
			Provider:               ProviderJWT,
			JWTLeeway:              30 * time.Second,
			TokenTTL:               time.Hour,
			SessionStore:           SessionStoreBadger,
			SessionStorePath:       "/data/sessions",
			SessionTTL:             24 * time.Hour,
			SessionCleanupInterval: 10 * time.Minute,
			CookieName:             "gatehouse_session",
			CookieSecure:           true,
		},
		Authz: AuthzConfig{
			RoleCacheEnabled:     true,
			RoleCacheTTL:         30 * time.Second,
			DecisionCacheEnabled: true,
			DecisionCacheTTL:     5 * time.Minute,
		},
		Checks: ChecksConfig{
			Timeout:                   5 * time.Second,
			OwnershipBatchConcurrency: 8,
			FallbackRedirect:          "/dashboard",
			FlashCookieName:           "gatehouse_flash",
		},
		Audit: AuditConfig{
			Enabled:         true,
			Stores:          []string{AuditStoreMemory},
			BufferSize:      1000,
			RateLimit:       200,
			RateBurst:       400,
			WriteTimeout:    5 * time.Second,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
			MemoryMaxEvents: 10000,
			DuckDBPath:      "/data/audit.duckdb",
			NATSURL:         "nats://127.0.0.1:4222",
			Topic:           "gatehouse.audit",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing priority, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// JWT_SECRET -> auth.jwt_secret, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"audit.stores",
	"security.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for
// sliceConfigPaths. Values from YAML are already slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Database
	"database_driver":                "database.driver",
	"database_url":                   "database.dsn",
	"database_max_conns":             "database.max_conns",
	"database_min_conns":             "database.min_conns",
	"database_max_conn_lifetime":     "database.max_conn_lifetime",
	"database_connect_timeout":       "database.connect_timeout",
	"database_query_timeout":         "database.query_timeout",
	"database_breaker_timeout":       "database.breaker_timeout",
	"database_breaker_min_requests":  "database.breaker_min_requests",
	"database_breaker_failure_ratio": "database.breaker_failure_ratio",
	"seed_demo_data":                 "database.seed_demo",

	// Auth
	"auth_provider":            "auth.provider",
	"jwt_secret":               "auth.jwt_secret",
	"jwt_issuer":               "auth.jwt_issuer",
	"jwt_audience":             "auth.jwt_audience",
	"jwt_leeway":               "auth.jwt_leeway",
	"jwt_token_ttl":            "auth.token_ttl",
	"session_store":            "auth.session_store",
	"session_store_path":       "auth.session_store_path",
	"session_ttl":              "auth.session_ttl",
	"session_sliding":          "auth.sliding_session",
	"session_cleanup_interval": "auth.session_cleanup_interval",
	"session_cookie_name":      "auth.cookie_name",
	"session_cookie_domain":    "auth.cookie_domain",
	"session_cookie_secure":    "auth.cookie_secure",

	// Authz
	"authz_role_cache_enabled":     "authz.role_cache_enabled",
	"authz_role_cache_ttl":         "authz.role_cache_ttl",
	"authz_decision_cache_enabled": "authz.decision_cache_enabled",
	"authz_decision_cache_ttl":     "authz.decision_cache_ttl",

	// Checks
	"check_timeout":               "checks.timeout",
	"ownership_batch_concurrency": "checks.ownership_batch_concurrency",
	"access_fallback_redirect":    "checks.fallback_redirect",
	"access_flash_cookie_name":    "checks.flash_cookie_name",

	// Audit
	"audit_enabled":           "audit.enabled",
	"audit_stores":            "audit.stores",
	"audit_buffer_size":       "audit.buffer_size",
	"audit_rate_limit":        "audit.rate_limit",
	"audit_rate_burst":        "audit.rate_burst",
	"audit_write_timeout":     "audit.write_timeout",
	"audit_retention_days":    "audit.retention_days",
	"audit_cleanup_interval":  "audit.cleanup_interval",
	"audit_log_to_stdout":     "audit.log_to_stdout",
	"audit_memory_max_events": "audit.memory_max_events",
	"audit_duckdb_path":       "audit.duckdb_path",
	"audit_nats_url":          "audit.nats_url",
	"audit_topic":             "audit.topic",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
