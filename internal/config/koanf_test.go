// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const testSecret = "s3cr3t-for-unit-tests-0123456789abcdef"

// isolateEnv points CONFIG_PATH at a missing file and sets the minimum
// environment Load needs.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Checks.Timeout != 5*time.Second {
		t.Errorf("Checks.Timeout = %v, want 5s", cfg.Checks.Timeout)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("Database.Driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Auth.Provider != ProviderJWT {
		t.Errorf("Auth.Provider = %q, want jwt", cfg.Auth.Provider)
	}
	if cfg.Authz.RoleCacheTTL != 30*time.Second {
		t.Errorf("Authz.RoleCacheTTL = %v, want 30s", cfg.Authz.RoleCacheTTL)
	}
	if !cfg.Audit.Enabled || !cfg.Audit.HasStore(AuditStoreMemory) {
		t.Errorf("Audit = %+v, want enabled with memory store", cfg.Audit)
	}

	// Defaults alone lack a JWT secret.
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("Validate() on bare defaults = %v, want JWT_SECRET error", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"DATABASE_URL", "database.dsn"},
		{"JWT_SECRET", "auth.jwt_secret"},
		{"CHECK_TIMEOUT", "checks.timeout"},
		{"AUDIT_STORES", "audit.stores"},
		{"LOG_LEVEL", "logging.level"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"log_format", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEnvMappingsTargetKnownPaths(t *testing.T) {
	k := koanf.New(".")
	cfg := defaultConfig()
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	for env, path := range envMappings {
		if !k.Exists(path) {
			t.Errorf("%s maps to unknown path %q", env, path)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("CONFIG_PATH wins", func(t *testing.T) {
		path := writeConfigFile(t, "server:\n  port: 1\n")
		t.Setenv(ConfigPathEnvVar, path)
		if got := findConfigFile(); got != path {
			t.Errorf("findConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("missing CONFIG_PATH falls through", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if got := findConfigFile(); got == "/non/existent/config.yaml" {
			t.Errorf("findConfigFile() returned a missing file")
		}
	})
}

func TestLoad_EnvVars(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHECK_TIMEOUT", "2s")
	t.Setenv("AUDIT_STORES", "memory, duckdb")
	t.Setenv("AUTHZ_ROLE_CACHE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Checks.Timeout != 2*time.Second {
		t.Errorf("Checks.Timeout = %v, want 2s", cfg.Checks.Timeout)
	}
	if want := []string{"memory", "duckdb"}; !reflect.DeepEqual(cfg.Audit.Stores, want) {
		t.Errorf("Audit.Stores = %v, want %v", cfg.Audit.Stores, want)
	}
	if cfg.Authz.RoleCacheEnabled {
		t.Error("Authz.RoleCacheEnabled = true, want false")
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("Auth.JWTSecret not loaded")
	}

	// Untouched values keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Checks.FallbackRedirect != "/dashboard" {
		t.Errorf("Checks.FallbackRedirect = %q, want /dashboard", cfg.Checks.FallbackRedirect)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8888
  host: "127.0.0.1"
auth:
  provider: session
  session_store: memory
  session_ttl: 12h
audit:
  stores: [memory, channel]
  topic: audit.events
security:
  cors_origins:
    - https://app.example.org
logging:
  level: warn
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Auth.Provider != ProviderSession || cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if !cfg.Audit.HasStore(AuditStoreChannel) || cfg.Audit.Topic != "audit.events" {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if want := []string{"https://app.example.org"}; !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8888
logging:
  level: warn
`)
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000 from env", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn from file", cfg.Logging.Level)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("Load() error = %v, want LOG_LEVEL validation error", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfigFile(t, "server: [unterminated\n")
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}

func TestProcessSliceFields(t *testing.T) {
	k := koanf.New(".")
	_ = k.Set("audit.stores", " memory ,, postgres ")
	_ = k.Set("security.cors_origins", []string{"https://a.example.org"})

	if err := processSliceFields(k); err != nil {
		t.Fatalf("processSliceFields: %v", err)
	}
	if got := k.Strings("audit.stores"); !reflect.DeepEqual(got, []string{"memory", "postgres"}) {
		t.Errorf("audit.stores = %v", got)
	}
	if got := k.Strings("security.cors_origins"); len(got) != 1 {
		t.Errorf("security.cors_origins = %v", got)
	}
}
