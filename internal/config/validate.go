// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/gatehouse/internal/validation"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateAuth,
		c.validateAuthz,
		c.validateChecks,
		c.validateAudit,
		c.validateLogging,
		c.validateSecurity,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment reports whether ENVIRONMENT is development or unset.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	db := &c.Database
	switch db.Driver {
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("DATABASE_DRIVER=memory is not allowed when ENVIRONMENT=production")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of: memory, postgres")
	}

	if db.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
	}
	if u, err := url.Parse(db.DSN); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// URL")
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least 1")
	}
	if db.MinConns < 0 || db.MinConns > db.MaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be between 0 and DATABASE_MAX_CONNS")
	}
	if db.BreakerFailureRatio <= 0 || db.BreakerFailureRatio > 1 {
		return fmt.Errorf("DATABASE_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if db.SeedDemo {
		return fmt.Errorf("SEED_DEMO_DATA is only supported with DATABASE_DRIVER=memory")
	}
	return nil
}

// minSecretLength is the minimum HS256 secret length.
const minSecretLength = 32

func (c *Config) validateAuth() error {
	a := &c.Auth
	switch a.Provider {
	case ProviderJWT:
		return c.validateJWTSecret()
	case ProviderSession:
		return c.validateSessionStore()
	default:
		return fmt.Errorf("AUTH_PROVIDER must be one of: jwt, session")
	}
}

func (c *Config) validateJWTSecret() error {
	secret := c.Auth.JWTSecret
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER is jwt")
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) validateSessionStore() error {
	a := &c.Auth
	switch a.SessionStore {
	case SessionStoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("SESSION_STORE=memory is not allowed when ENVIRONMENT=production")
		}
	case SessionStoreBadger:
		if a.SessionStorePath == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger")
	}
	if a.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if a.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	return nil
}

func (c *Config) validateAuthz() error {
	if c.Authz.RoleCacheEnabled && c.Authz.RoleCacheTTL <= 0 {
		return fmt.Errorf("AUTHZ_ROLE_CACHE_TTL must be positive when the role cache is enabled")
	}
	if c.Authz.DecisionCacheEnabled && c.Authz.DecisionCacheTTL <= 0 {
		return fmt.Errorf("AUTHZ_DECISION_CACHE_TTL must be positive when the decision cache is enabled")
	}
	return nil
}

// Check timeout bounds.
const (
	minCheckTimeout = 100 * time.Millisecond
	maxCheckTimeout = time.Minute
)

func (c *Config) validateChecks() error {
	ch := &c.Checks
	if ch.Timeout < minCheckTimeout || ch.Timeout > maxCheckTimeout {
		return fmt.Errorf("CHECK_TIMEOUT must be between %v and %v", minCheckTimeout, maxCheckTimeout)
	}
	if ch.OwnershipBatchConcurrency < 1 {
		return fmt.Errorf("OWNERSHIP_BATCH_CONCURRENCY must be at least 1")
	}
	if !validation.IsRoutePath(ch.FallbackRedirect) {
		return fmt.Errorf("ACCESS_FALLBACK_REDIRECT must be an absolute path on this site")
	}
	return nil
}

var validAuditStores = map[string]bool{
	AuditStoreMemory:   true,
	AuditStorePostgres: true,
	AuditStoreDuckDB:   true,
	AuditStoreNATS:     true,
	AuditStoreChannel:  true,
}

func (c *Config) validateAudit() error {
	a := &c.Audit
	if !a.Enabled {
		return nil
	}

	var errs []error
	for _, s := range a.Stores {
		if !validAuditStores[s] {
			errs = append(errs, fmt.Errorf("AUDIT_STORES: unknown store %q", s))
		}
	}
	if a.HasStore(AuditStorePostgres) && c.Database.Driver != DriverPostgres {
		errs = append(errs, fmt.Errorf("AUDIT_STORES=postgres requires DATABASE_DRIVER=postgres"))
	}
	if a.HasStore(AuditStoreNATS) {
		if u, err := url.Parse(a.NATSURL); err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
			errs = append(errs, fmt.Errorf("AUDIT_NATS_URL must be a nats:// or tls:// URL"))
		}
	}
	if (a.HasStore(AuditStoreNATS) || a.HasStore(AuditStoreChannel)) && a.Topic == "" {
		errs = append(errs, fmt.Errorf("AUDIT_TOPIC is required for publisher stores"))
	}
	if a.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1"))
	}
	if a.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("AUDIT_RATE_LIMIT must not be negative"))
	}
	if a.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// Rate limit bounds.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://app.example.com")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports whether CORS allows every origin.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

// placeholderPatterns catch values copied from example files.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
