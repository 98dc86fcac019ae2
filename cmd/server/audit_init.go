// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/config"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/supervisor/services"
)

// auditSetup is the audit logger and the stores behind it.
type auditSetup struct {
	logger    *audit.Logger
	store     audit.Store
	forwarder suture.Service
	closers   []services.CloseFunc
}

func initAudit(ctx context.Context, cfg *config.Config, pf *platform) (*auditSetup, error) {
	setup := &auditSetup{}
	var stores []audit.Store

	for _, name := range cfg.Audit.Stores {
		switch name {
		case config.AuditStoreMemory:
			stores = append(stores, audit.NewMemoryStore(cfg.Audit.MemoryMaxEvents))

		case config.AuditStorePostgres:
			if pf.pool == nil {
				return nil, errors.New("postgres audit store needs the postgres platform database")
			}
			store := audit.NewPostgresStore(pf.pool)
			if err := store.CreateTable(ctx); err != nil {
				return nil, fmt.Errorf("create audit_logs: %w", err)
			}
			stores = append(stores, store)

		case config.AuditStoreDuckDB:
			store, err := audit.OpenDuckDBStore(ctx, cfg.Audit.DuckDBPath)
			if err != nil {
				return nil, err
			}
			stores = append(stores, store)
			setup.closers = append(setup.closers, store.Close)

		case config.AuditStoreNATS:
			pub, err := audit.NewNATSPublisher(audit.NATSPublisherConfig{URL: cfg.Audit.NATSURL}, nil)
			if err != nil {
				return nil, err
			}
			store := audit.NewPublisherStore(pub, cfg.Audit.Topic)
			stores = append(stores, store)
			setup.closers = append(setup.closers, store.Close)

		case config.AuditStoreChannel:
			pubsub := audit.NewInProcessPubSub(256)
			messages, err := pubsub.Subscribe(context.Background(), cfg.Audit.Topic)
			if err != nil {
				return nil, fmt.Errorf("subscribe to %s: %w", cfg.Audit.Topic, err)
			}
			store := audit.NewPublisherStore(pubsub, cfg.Audit.Topic)
			stores = append(stores, store)
			setup.closers = append(setup.closers, store.Close)
			setup.forwarder = &cefForwarder{messages: messages, exporter: audit.NewCEFExporter()}

		default:
			return nil, fmt.Errorf("unsupported audit store %q", name)
		}
	}

	setup.store = audit.NewMultiStore(stores...)
	setup.logger = audit.NewLogger(setup.store, &audit.Config{
		Enabled:         cfg.Audit.Enabled,
		LogLevel:        audit.SeverityInfo,
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: cfg.Audit.CleanupInterval,
		BufferSize:      cfg.Audit.BufferSize,
		RateLimit:       cfg.Audit.RateLimit,
		RateBurst:       cfg.Audit.RateBurst,
		WriteTimeout:    cfg.Audit.WriteTimeout,
		LogToStdout:     cfg.Audit.LogToStdout,
	})

	logging.Info().
		Bool("enabled", cfg.Audit.Enabled).
		Strs("stores", cfg.Audit.Stores).
		Int("retention_days", cfg.Audit.RetentionDays).
		Msg("Audit sink initialized")
	return setup, nil
}

// cefForwarder renders events from the in-process topic as CEF lines in
// the process log, for SIEM agents that tail it.
type cefForwarder struct {
	messages <-chan *message.Message
	exporter *audit.CEFExporter
}

func (f *cefForwarder) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-f.messages:
			if !ok {
				return suture.ErrDoNotRestart
			}
			f.forward(msg)
		}
	}
}

func (f *cefForwarder) forward(msg *message.Message) {
	defer msg.Ack()

	ev, err := audit.DecodeMessage(msg)
	if err != nil {
		logging.Warn().Err(err).Msg("Dropping undecodable audit message")
		return
	}
	line, err := f.exporter.Export([]audit.SecurityEvent{*ev})
	if err != nil {
		logging.Warn().Err(err).Str("event_id", ev.ID).Msg("Failed to render audit event")
		return
	}
	logging.Info().Str("cef", string(line)).Msg("Audit event")
}

func (f *cefForwarder) String() string {
	return "audit-cef-forwarder"
}
