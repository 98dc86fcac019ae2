// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/config"
	"github.com/tomtom215/gatehouse/internal/database"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Database: config.DatabaseConfig{
			Driver:   config.DriverMemory,
			SeedDemo: true,
		},
		Auth: config.AuthConfig{
			Provider:               config.ProviderJWT,
			JWTSecret:              "test-secret-that-is-at-least-32-characters",
			TokenTTL:               time.Hour,
			SessionStore:           config.SessionStoreMemory,
			SessionTTL:             time.Hour,
			SessionCleanupInterval: time.Minute,
		},
		Audit: config.AuditConfig{
			Enabled:         true,
			Stores:          []string{config.AuditStoreMemory},
			BufferSize:      10,
			WriteTimeout:    time.Second,
			MemoryMaxEvents: 100,
			Topic:           "gatehouse.audit",
		},
	}
}

func TestInitPlatform_MemorySeeded(t *testing.T) {
	pf, err := initPlatform(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("initPlatform() error = %v", err)
	}
	defer pf.Close()

	profile, err := pf.GetProfile(context.Background(), database.DemoAdminID)
	if err != nil || profile == nil {
		t.Fatalf("GetProfile() = %v, %v", profile, err)
	}
	if profile.Role != "admin" {
		t.Errorf("role = %q, want admin", profile.Role)
	}
	if pf.pool != nil {
		t.Error("memory platform exposes a pool")
	}
}

func TestInitPlatform_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "sqlite"
	if _, err := initPlatform(context.Background(), cfg); err == nil {
		t.Error("initPlatform() accepted an unknown driver")
	}
}

func TestInitIdentity(t *testing.T) {
	identity := &models.Identity{ID: database.DemoOwnerID, Email: "owner@example.com", EmailVerified: true}

	tests := []struct {
		name        string
		provider    string
		wantCleanup bool
	}{
		{"jwt", config.ProviderJWT, false},
		{"memory sessions", config.ProviderSession, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Auth.Provider = tt.provider

			setup, err := initIdentity(cfg)
			if err != nil {
				t.Fatalf("initIdentity() error = %v", err)
			}
			if (setup.cleanup != nil) != tt.wantCleanup {
				t.Errorf("cleanup service present = %v, want %v", setup.cleanup != nil, tt.wantCleanup)
			}

			token, err := setup.devSignIn(context.Background(), identity)
			if err != nil || token == "" {
				t.Fatalf("devSignIn() = %q, %v", token, err)
			}
		})
	}
}

func TestInitIdentity_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Provider = "saml"
	if _, err := initIdentity(cfg); err == nil {
		t.Error("initIdentity() accepted an unknown provider")
	}
}

func TestInitAudit_Rejects(t *testing.T) {
	pf := &platform{platformStore: database.NewMemory()}

	tests := []struct {
		name   string
		stores []string
	}{
		{"postgres without pool", []string{config.AuditStorePostgres}},
		{"unknown store", []string{"kafka"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Audit.Stores = tt.stores
			if _, err := initAudit(context.Background(), cfg, pf); err == nil {
				t.Error("initAudit() succeeded")
			}
		})
	}
}

func TestInitAudit_ChannelForwardsCEF(t *testing.T) {
	buf := &syncBuffer{}
	logging.Init(logging.Config{Level: "info", Format: "json", Output: buf})
	t.Cleanup(func() { logging.Init(logging.Config{Level: "disabled"}) })

	cfg := testConfig()
	cfg.Audit.Stores = []string{config.AuditStoreMemory, config.AuditStoreChannel}

	setup, err := initAudit(context.Background(), cfg, &platform{platformStore: database.NewMemory()})
	if err != nil {
		t.Fatalf("initAudit() error = %v", err)
	}
	if setup.forwarder == nil {
		t.Fatal("channel store did not start a forwarder")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = setup.forwarder.Serve(ctx)
	}()

	setup.logger.LogSecurityEvent(ctx, audit.NewDecisionEvent(database.DemoMemberID, audit.ActionAccessCheck, "", "",
		models.Deny(models.LayerAuthorization, models.ReasonInsufficientRoleLevel, "")))
	if err := setup.logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "CEF:0|Gatehouse") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if !strings.Contains(buf.String(), "CEF:0|Gatehouse") {
		t.Errorf("no CEF line logged: %s", buf.String())
	}
	for _, c := range setup.closers {
		_ = c()
	}
}
