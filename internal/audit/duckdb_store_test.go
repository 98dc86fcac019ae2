// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

//go:build integration

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/gatehouse/internal/models"
)

func setupDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()

	store, err := OpenDuckDBStore(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDuckDBStore_SaveAndGet(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	ev := NewDecisionEvent("user-123", ActionOwnershipCheck, "pages", "page_42",
		models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, "not owner"))
	ev.ID = "evt-1"
	ev.Timestamp = time.Now().UTC().Truncate(time.Microsecond)
	ev.Source = Source{IPAddress: "10.0.0.1", UserAgent: "test", Path: "/pages/page_42"}
	ev.RequestID = "req-1"

	if err := store.Save(ctx, &ev); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Actor() != "user-123" || got.ResourceID != "page_42" || got.Reason != models.ReasonNotResourceOwner {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.Layer != models.LayerOwnership {
		t.Errorf("Layer = %q", got.Layer)
	}
	if got.Source.Path != "/pages/page_42" {
		t.Errorf("Source = %+v", got.Source)
	}
	if len(got.Metadata) == 0 {
		t.Error("metadata lost")
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDuckDBStore_AnonymousActor(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	ev := NewDecisionEvent("", ActionAccessCheck, "", "",
		models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, ""))
	ev.ID = "anon"
	ev.Timestamp = time.Now().UTC()
	if err := store.Save(ctx, &ev); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "anon")
	if err != nil {
		t.Fatal(err)
	}
	if got.ActorID != nil {
		t.Errorf("ActorID = %v, want nil", *got.ActorID)
	}
}

func TestDuckDBStore_QueryCountDelete(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedEvents(t, store, now)

	events, err := store.Query(ctx, QueryFilter{ActorID: "alice", OrderBy: "timestamp", OrderDesc: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "e3" {
		t.Errorf("unexpected alice events: %+v", events)
	}

	count, err := store.Count(ctx, QueryFilter{Decisions: []Decision{DecisionDeny}})
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("deny count = %d, want 3", count)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 4 || stats.EventsByDecision["deny"] != 3 {
		t.Errorf("stats = %+v", stats)
	}

	deleted, err := store.Delete(ctx, now.Add(-90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
}
