// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package main

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/config"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/supervisor/services"
)

// identitySetup is the configured identity provider and what it needs
// at runtime.
type identitySetup struct {
	provider  auth.IdentityProvider
	devSignIn func(ctx context.Context, identity *models.Identity) (string, error)
	cleanup   suture.Service
	closers   []services.CloseFunc
}

func initIdentity(cfg *config.Config) (*identitySetup, error) {
	switch cfg.Auth.Provider {
	case config.ProviderJWT:
		provider, err := auth.NewJWTProvider(auth.JWTProviderConfig{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.JWTIssuer,
			Audience: cfg.Auth.JWTAudience,
			Leeway:   cfg.Auth.JWTLeeway,
			TokenTTL: cfg.Auth.TokenTTL,
		})
		if err != nil {
			return nil, err
		}
		logging.Info().Str("issuer", cfg.Auth.JWTIssuer).Msg("JWT identity provider enabled")
		return &identitySetup{
			provider: provider,
			devSignIn: func(_ context.Context, identity *models.Identity) (string, error) {
				return provider.GenerateToken(identity)
			},
		}, nil

	case config.ProviderSession:
		setup := &identitySetup{}
		var store auth.SessionStore

		switch cfg.Auth.SessionStore {
		case config.SessionStoreBadger:
			badgerStore, db, err := auth.OpenBadgerSessionStore(cfg.Auth.SessionStorePath)
			if err != nil {
				return nil, fmt.Errorf("open session store: %w", err)
			}
			store = badgerStore
			setup.closers = append(setup.closers, db.Close)
			logging.Info().Str("path", cfg.Auth.SessionStorePath).Msg("Sessions persisted in BadgerDB")
		case config.SessionStoreMemory:
			store = auth.NewMemorySessionStore()
			if !cfg.IsDevelopment() {
				logging.Warn().Msg("Session store is 'memory'; sessions are lost on restart")
			}
		default:
			return nil, fmt.Errorf("unsupported session store %q", cfg.Auth.SessionStore)
		}

		provider := auth.NewSessionProvider(store, &auth.SessionProviderConfig{
			SessionTTL:     cfg.Auth.SessionTTL,
			SlidingSession: cfg.Auth.SlidingSession,
		})
		setup.provider = provider
		setup.cleanup = auth.NewCleanupService(store, cfg.Auth.SessionCleanupInterval)
		setup.devSignIn = func(ctx context.Context, identity *models.Identity) (string, error) {
			session, err := provider.SignIn(ctx, identity)
			if err != nil {
				return "", err
			}
			return session.AccessToken, nil
		}
		return setup, nil

	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.Auth.Provider)
	}
}
