// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/gatehouse/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	pool, err := pgxpool.New(ctx, pg.DSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	store := NewPostgresStore(pool)
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	seedEvents(t, store, now)

	got, err := store.Get(ctx, "e2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ResourceType != "pages" || got.Actor() != "bob" {
		t.Errorf("unexpected event %+v", got)
	}

	events, err := store.Query(ctx, QueryFilter{Decisions: []Decision{DecisionDeny}, OrderBy: "timestamp", OrderDesc: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 3 || events[0].ID != "e4" {
		t.Errorf("unexpected denials %+v", events)
	}
	if events[0].ActorID != nil {
		t.Error("anonymous actor must round-trip as NULL")
	}

	count, err := store.Count(ctx, QueryFilter{ActorID: "alice"})
	if err != nil || count != 2 {
		t.Errorf("Count = %d, %v", count, err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalEvents != 4 || stats.EventsByDecision["deny"] != 3 || stats.EventsByReason["not_resource_owner"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil {
		t.Error("stats missing time range")
	}

	deleted, err := store.Delete(ctx, now.Add(-90*time.Minute))
	if err != nil || deleted != 2 {
		t.Errorf("Delete = %d, %v", deleted, err)
	}
}
