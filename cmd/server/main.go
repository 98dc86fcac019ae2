// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/gatehouse/internal/api"
	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/config"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/ownership"
	"github.com/tomtom215/gatehouse/internal/security"
	"github.com/tomtom215/gatehouse/internal/supervisor"
	"github.com/tomtom215/gatehouse/internal/supervisor/services"
	ws "github.com/tomtom215/gatehouse/internal/websocket"
)

//nolint:gocyclo // sequential wiring of every layer
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("database", cfg.Database.Driver).
		Str("provider", cfg.Auth.Provider).
		Strs("audit_stores", cfg.Audit.Stores).
		Msg("Starting Gatehouse")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Closed in order once the tree has stopped: the audit logger drains
	// into its stores before they and the platform close.
	var closers []services.CloseFunc

	pf, err := initPlatform(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize platform database")
	}

	identity, err := initIdentity(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize identity provider")
	}

	auditSetup, err := initAudit(ctx, cfg, pf)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit sink")
	}
	closers = append(closers, auditSetup.logger.Close)
	closers = append(closers, auditSetup.closers...)
	closers = append(closers, identity.closers...)

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		CacheEnabled: cfg.Authz.DecisionCacheEnabled,
		CacheTTL:     cfg.Authz.DecisionCacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize policy enforcer")
	}
	authorizer := authz.NewAuthorizer(enforcer, pf, &authz.AuthorizerConfig{
		RoleCacheEnabled: cfg.Authz.RoleCacheEnabled,
		RoleCacheTTL:     cfg.Authz.RoleCacheTTL,
	})
	closers = append(closers,
		func() error { authorizer.Close(); return nil },
		func() error { enforcer.Close(); return nil },
		pf.Close,
	)

	authenticator := auth.NewAuthenticator(identity.provider, pf)
	checker := ownership.NewChecker(pf, pf, &ownership.CheckerConfig{
		BatchConcurrency: cfg.Checks.OwnershipBatchConcurrency,
	})
	pipeline := security.NewPipeline(authenticator, authorizer, checker, auditSetup.logger, &security.PipelineConfig{
		CheckTimeout: cfg.Checks.Timeout,
	})
	guard := security.NewGuard(pipeline, &security.GuardConfig{
		FlashCookieName:  cfg.Checks.FlashCookieName,
		FallbackRedirect: cfg.Checks.FallbackRedirect,
		APIPrefix:        "/api/",
		SecureCookies:    cfg.Auth.CookieSecure,
	})

	hub := ws.NewHub()
	detach := hub.Attach(identity.provider)
	defer detach()

	credentials := auth.DefaultCredentialsConfig()
	credentials.CookieName = cfg.Auth.CookieName
	credentials.CookieDomain = cfg.Auth.CookieDomain
	credentials.CookieSecure = cfg.Auth.CookieSecure

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	chiMW := api.NewChiMiddleware(mwConfig)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; session cookies will not be sent cross-origin")
	}

	deps := api.HandlerDeps{
		Authenticator:    authenticator,
		Authorizer:       authorizer,
		Ownership:        checker,
		Pipeline:         pipeline,
		Profiles:         pf,
		Hub:              hub,
		Audit:            auditSetup.logger,
		AuditReader:      auditSetup.logger,
		Credentials:      credentials,
		FallbackRedirect: cfg.Checks.FallbackRedirect,
		AllowOrigin:      chiMW.AllowsOrigin,
		HealthChecks: []api.HealthCheck{
			{Name: "platform", Ping: pf.Ping},
		},
	}
	if cfg.Database.SeedDemo && !cfg.IsProduction() {
		deps.DevSignIn = identity.devSignIn
		logging.Warn().Msg("Dev sign-in enabled at /api/v1/dev/signin for seeded demo users")
	}

	router := api.NewRouter(api.NewHandler(deps), chiMW, guard, credentials).Setup()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Audit.RetentionDays > 0 {
		tree.AddStorageService(audit.NewRetentionService(auditSetup.store, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval))
	}
	if identity.cleanup != nil {
		tree.AddStorageService(identity.cleanup)
	}
	if auditSetup.forwarder != nil {
		tree.AddStorageService(auditSetup.forwarder)
	}
	resources := services.NewCloserService("resources", toClosers(closers)...)
	tree.AddStorageService(resources)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	select {
	case <-resources.Closed():
	case <-time.After(cfg.Server.ShutdownTimeout):
		logging.Warn().Msg("Timed out waiting for resources to close")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Gatehouse stopped")
}

func toClosers(fns []services.CloseFunc) []io.Closer {
	out := make([]io.Closer, 0, len(fns))
	for _, fn := range fns {
		out = append(out, fn)
	}
	return out
}
