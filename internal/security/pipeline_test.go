// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
)

// callLog records the order in which layers are consulted.
type callLog struct {
	mu    sync.Mutex
	calls []models.Layer
}

func (l *callLog) add(layer models.Layer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, layer)
}

func (l *callLog) get() []models.Layer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Layer(nil), l.calls...)
}

// layerBehavior lets a fake layer stall or panic.
type layerBehavior struct {
	delay     time.Duration
	panicWith interface{}
}

func (b layerBehavior) run(ctx context.Context) {
	if b.panicWith != nil {
		panic(b.panicWith)
	}
	if b.delay > 0 {
		// Deliberately ignores ctx so the pipeline's own deadline is exercised.
		time.Sleep(b.delay)
	}
}

type fakeAuthn struct {
	log      *callLog
	outcome  auth.Outcome
	behavior layerBehavior

	mu       sync.Mutex
	lastOpts auth.AuthOptions
}

func (f *fakeAuthn) Authenticate(ctx context.Context, opts auth.AuthOptions) auth.Outcome {
	f.log.add(models.LayerAuthentication)
	f.mu.Lock()
	f.lastOpts = opts
	f.mu.Unlock()
	f.behavior.run(ctx)
	return f.outcome
}

type fakeAuthz struct {
	log      *callLog
	result   models.SecurityCheckResult
	behavior layerBehavior

	mu       sync.Mutex
	lastUser string
	lastOpts authz.Options
}

func (f *fakeAuthz) CheckAuthorization(ctx context.Context, userID string, opts authz.Options) models.SecurityCheckResult {
	f.log.add(models.LayerAuthorization)
	f.mu.Lock()
	f.lastUser = userID
	f.lastOpts = opts
	f.mu.Unlock()
	f.behavior.run(ctx)
	return f.result
}

type fakeOwner struct {
	log      *callLog
	result   models.SecurityCheckResult
	behavior layerBehavior

	mu       sync.Mutex
	lastUser string
	lastOpts ownership.Options
}

func (f *fakeOwner) CheckOwnership(ctx context.Context, userID string, opts ownership.Options) models.SecurityCheckResult {
	f.log.add(models.LayerOwnership)
	f.mu.Lock()
	f.lastUser = userID
	f.lastOpts = opts
	f.mu.Unlock()
	f.behavior.run(ctx)
	return f.result
}

// recordingSink captures audit events synchronously.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.SecurityEvent
}

func (s *recordingSink) LogSecurityEvent(_ context.Context, ev audit.SecurityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) get() []audit.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.SecurityEvent(nil), s.events...)
}

type fixture struct {
	log   *callLog
	authn *fakeAuthn
	authz *fakeAuthz
	owner *fakeOwner
	sink  *recordingSink
}

func signedIn(id string) auth.Outcome {
	return auth.Outcome{Result: models.Allow(), User: &models.Identity{ID: id, EmailVerified: true}}
}

func anonymous() auth.Outcome {
	return auth.Outcome{Result: models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, "no valid session")}
}

func newFixture(outcome auth.Outcome) *fixture {
	log := &callLog{}
	return &fixture{
		log:   log,
		authn: &fakeAuthn{log: log, outcome: outcome},
		authz: &fakeAuthz{log: log, result: models.Allow()},
		owner: &fakeOwner{log: log, result: models.Allow()},
		sink:  &recordingSink{},
	}
}

func (f *fixture) pipeline(timeout time.Duration) *Pipeline {
	return NewPipeline(f.authn, f.authz, f.owner, f.sink, &PipelineConfig{CheckTimeout: timeout})
}

func assertDenied(t *testing.T, got models.SecurityCheckResult, layer models.Layer, reason models.DeniedReason) {
	t.Helper()
	if got.Allowed {
		t.Fatalf("expected denial (%s/%s), got allowed", layer, reason)
	}
	if got.Layer != layer || got.DeniedReason != reason {
		t.Errorf("got %s/%s, want %s/%s", got.Layer, got.DeniedReason, layer, reason)
	}
}

func TestPipeline_AnonymousDeniedAtAuthentication(t *testing.T) {
	f := newFixture(anonymous())
	p := f.pipeline(time.Second)

	got := p.RunFullSecurityCheck(context.Background(), MustPreset(PresetPageEditor), "page_42")

	assertDenied(t, got, models.LayerAuthentication, models.ReasonNotAuthenticated)
	if calls := f.log.get(); !reflect.DeepEqual(calls, []models.Layer{models.LayerAuthentication}) {
		t.Errorf("layers consulted = %v, want authentication only", calls)
	}
	if RedirectPath(got, "") != PathAuth {
		t.Errorf("redirect = %q, want %q", RedirectPath(got, ""), PathAuth)
	}
}

func TestPipeline_LayerOrder(t *testing.T) {
	f := newFixture(signedIn("u1"))
	p := f.pipeline(time.Second)

	got := p.RunFullSecurityCheck(context.Background(), MustPreset(PresetPageEditor), "page_42")
	if !got.Allowed {
		t.Fatalf("expected allowed, got %+v", got)
	}

	want := []models.Layer{models.LayerAuthentication, models.LayerAuthorization, models.LayerOwnership}
	if calls := f.log.get(); !reflect.DeepEqual(calls, want) {
		t.Errorf("layers consulted = %v, want %v", calls, want)
	}
	if f.authz.lastUser != "u1" || f.owner.lastUser != "u1" {
		t.Errorf("user id not propagated: authz=%q ownership=%q", f.authz.lastUser, f.owner.lastUser)
	}
	if f.owner.lastOpts.ResourceID != "page_42" || f.owner.lastOpts.ResourceType != models.ResourcePages {
		t.Errorf("ownership options = %+v", f.owner.lastOpts)
	}
	if !f.owner.lastOpts.AllowTeamAccess || len(f.owner.lastOpts.RequiredTeamRoles) != 2 {
		t.Errorf("team options not propagated: %+v", f.owner.lastOpts)
	}
}

func TestPipeline_AuthorizationDenialStopsOwnership(t *testing.T) {
	f := newFixture(signedIn("u1"))
	f.authz.result = models.Deny(models.LayerAuthorization, models.ReasonInsufficientPermissions, "missing pages.delete_any")
	p := f.pipeline(time.Second)

	cfg := MustConfig(WithPermissions(models.PermPagesDeleteAny), WithOwnership(models.ResourcePages, "", false))
	got := p.RunFullSecurityCheck(context.Background(), cfg, "page_42")

	assertDenied(t, got, models.LayerAuthorization, models.ReasonInsufficientPermissions)
	for _, layer := range f.log.get() {
		if layer == models.LayerOwnership {
			t.Error("ownership consulted after authorization denial")
		}
	}
}

func TestPipeline_NoAuthzCriteriaSkipsAuthorizer(t *testing.T) {
	f := newFixture(signedIn("u1"))
	p := f.pipeline(time.Second)

	got := p.RunSecurityChecks(context.Background(), MustPreset(PresetDashboard))
	if !got.Allowed {
		t.Fatalf("expected allowed, got %+v", got)
	}
	if calls := f.log.get(); len(calls) != 1 {
		t.Errorf("layers consulted = %v, want authentication only", calls)
	}
	if !f.authn.lastOpts.RequireAuth || !f.authn.lastOpts.RequireOnboardingComplete {
		t.Errorf("auth options = %+v", f.authn.lastOpts)
	}
}

func TestPipeline_RunSecurityChecksIgnoresOwnership(t *testing.T) {
	f := newFixture(signedIn("u1"))
	f.owner.result = models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, "")
	p := f.pipeline(time.Second)

	got := p.RunSecurityChecks(context.Background(), MustPreset(PresetPageEditor))
	if !got.Allowed {
		t.Fatalf("expected allowed, got %+v", got)
	}
	for _, layer := range f.log.get() {
		if layer == models.LayerOwnership {
			t.Error("ownership consulted by RunSecurityChecks")
		}
	}
}

func TestPipeline_MissingResourceIDDenies(t *testing.T) {
	f := newFixture(signedIn("u1"))
	p := f.pipeline(time.Second)

	got := p.RunFullSecurityCheck(context.Background(), MustPreset(PresetPageEditor), "")
	assertDenied(t, got, models.LayerOwnership, models.ReasonNotResourceOwner)
}

func TestPipeline_RunOwnershipCheck(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		f := newFixture(signedIn("u1"))
		p := f.pipeline(time.Second)

		got := p.RunOwnershipCheck(context.Background(), models.ResourceLeads, "lead_1", OwnershipOptions{})
		if !got.Allowed {
			t.Fatalf("expected allowed, got %+v", got)
		}
		want := []models.Layer{models.LayerAuthentication, models.LayerOwnership}
		if calls := f.log.get(); !reflect.DeepEqual(calls, want) {
			t.Errorf("layers consulted = %v, want %v", calls, want)
		}
		if !f.authn.lastOpts.RequireAuth {
			t.Error("ownership check must require authentication")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(anonymous())
		p := f.pipeline(time.Second)

		got := p.RunOwnershipCheck(context.Background(), models.ResourceLeads, "lead_1", OwnershipOptions{})
		assertDenied(t, got, models.LayerAuthentication, models.ReasonNotAuthenticated)
	})
}

func TestPipeline_Idempotent(t *testing.T) {
	f := newFixture(signedIn("u1"))
	f.owner.result = models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, "not owner")
	p := f.pipeline(time.Second)
	cfg := MustPreset(PresetPageEditor)

	first := p.RunFullSecurityCheck(context.Background(), cfg, "page_42")
	for i := 0; i < 5; i++ {
		if got := p.RunFullSecurityCheck(context.Background(), cfg, "page_42"); got != first {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestPipeline_TimeoutDeniesAtLayer(t *testing.T) {
	tests := []struct {
		name   string
		stall  func(f *fixture)
		layer  models.Layer
		reason models.DeniedReason
	}{
		{
			name:   "authentication",
			stall:  func(f *fixture) { f.authn.behavior.delay = 500 * time.Millisecond },
			layer:  models.LayerAuthentication,
			reason: models.ReasonNotAuthenticated,
		},
		{
			name:   "authorization",
			stall:  func(f *fixture) { f.authz.behavior.delay = 500 * time.Millisecond },
			layer:  models.LayerAuthorization,
			reason: models.ReasonInsufficientPermissions,
		},
		{
			name:   "ownership",
			stall:  func(f *fixture) { f.owner.behavior.delay = 500 * time.Millisecond },
			layer:  models.LayerOwnership,
			reason: models.ReasonNotResourceOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(signedIn("u1"))
			tt.stall(f)
			p := f.pipeline(50 * time.Millisecond)

			start := time.Now()
			got := p.RunFullSecurityCheck(context.Background(), MustPreset(PresetPageEditor), "page_42")
			elapsed := time.Since(start)

			assertDenied(t, got, tt.layer, tt.reason)
			if elapsed > 400*time.Millisecond {
				t.Errorf("check took %v, deadline was not enforced", elapsed)
			}
		})
	}
}

func TestPipeline_CanceledContextDenies(t *testing.T) {
	f := newFixture(signedIn("u1"))
	p := f.pipeline(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := p.RunSecurityChecks(ctx, MustPreset(PresetAuthenticated))
	assertDenied(t, got, models.LayerAuthentication, models.ReasonNotAuthenticated)
	if calls := f.log.get(); len(calls) != 0 {
		t.Errorf("layers consulted after cancel: %v", calls)
	}
}

func TestPipeline_PanicDeniesAsUnauthenticated(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"authentication", func(f *fixture) { f.authn.behavior.panicWith = "boom" }},
		{"authorization", func(f *fixture) { f.authz.behavior.panicWith = "boom" }},
		{"ownership", func(f *fixture) { f.owner.behavior.panicWith = "boom" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(signedIn("u1"))
			tt.setup(f)
			p := f.pipeline(time.Second)

			got := p.RunFullSecurityCheck(context.Background(), MustPreset(PresetPageEditor), "page_42")
			assertDenied(t, got, models.LayerAuthentication, models.ReasonNotAuthenticated)
		})
	}
}

func TestPipeline_NilLayersFailClosed(t *testing.T) {
	f := newFixture(signedIn("u1"))
	p := NewPipeline(f.authn, nil, nil, nil, nil)

	got := p.RunSecurityChecks(context.Background(), MustPreset(PresetAdmin))
	assertDenied(t, got, models.LayerAuthorization, models.ReasonInsufficientPermissions)

	cfg := MustConfig(WithOwnership(models.ResourcePages, "", false))
	got = p.RunFullSecurityCheck(context.Background(), cfg, "page_42")
	assertDenied(t, got, models.LayerOwnership, models.ReasonNotResourceOwner)

	p = NewPipeline(nil, nil, nil, nil, nil)
	got = p.RunSecurityChecks(context.Background(), MustPreset(PresetPublic))
	assertDenied(t, got, models.LayerAuthentication, models.ReasonNotAuthenticated)
}

func TestPipeline_AuditsDenials(t *testing.T) {
	f := newFixture(signedIn("u1"))
	f.owner.result = models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, "not owner")
	p := f.pipeline(time.Second)

	ctx := WithAuditSource(context.Background(), audit.Source{IPAddress: "203.0.113.7", Path: "/pages/page_42"})
	p.RunFullSecurityCheck(ctx, MustPreset(PresetPageEditor), "page_42")

	events := f.sink.get()
	if len(events) != 1 {
		t.Fatalf("got %d audit events, want 1", len(events))
	}
	ev := events[0]
	if ev.Decision != audit.DecisionDeny || ev.Reason != models.ReasonNotResourceOwner {
		t.Errorf("event decision/reason = %s/%s", ev.Decision, ev.Reason)
	}
	if ev.Action != audit.ActionOwnershipCheck {
		t.Errorf("action = %q, want %q", ev.Action, audit.ActionOwnershipCheck)
	}
	if ev.Actor() != "u1" || ev.ResourceType != "pages" || ev.ResourceID != "page_42" {
		t.Errorf("event subject = %s %s/%s", ev.Actor(), ev.ResourceType, ev.ResourceID)
	}
	if ev.Source.IPAddress != "203.0.113.7" {
		t.Errorf("source ip = %q", ev.Source.IPAddress)
	}
}

func TestPipeline_AuditsSensitiveGrantsOnly(t *testing.T) {
	f := newFixture(signedIn("admin-1"))
	p := f.pipeline(time.Second)

	p.RunSecurityChecks(context.Background(), MustPreset(PresetDashboard))
	if n := len(f.sink.get()); n != 0 {
		t.Fatalf("ordinary grant audited: %d events", n)
	}

	p.RunSecurityChecks(context.Background(), MustPreset(PresetAdmin))
	events := f.sink.get()
	if len(events) != 1 {
		t.Fatalf("got %d audit events, want 1", len(events))
	}
	if events[0].Decision != audit.DecisionAllow || events[0].Action != audit.ActionAccessCheck {
		t.Errorf("event = %s %s", events[0].Action, events[0].Decision)
	}
	if events[0].ResourceID != "" {
		t.Errorf("resource id recorded without ownership config: %q", events[0].ResourceID)
	}
}

func TestPipeline_AnonymousDenialAuditedWithoutActor(t *testing.T) {
	f := newFixture(anonymous())
	p := f.pipeline(time.Second)

	p.RunSecurityChecks(context.Background(), MustPreset(PresetAuthenticated))

	events := f.sink.get()
	if len(events) != 1 {
		t.Fatalf("got %d audit events, want 1", len(events))
	}
	if events[0].ActorID != nil || events[0].Actor() != "anonymous" {
		t.Errorf("actor = %v", events[0].ActorID)
	}
}

func TestDecision_UserID(t *testing.T) {
	if (Decision{}).UserID() != "" {
		t.Error("anonymous decision has a user id")
	}
	d := Decision{User: &models.Identity{ID: "u9"}}
	if d.UserID() != "u9" {
		t.Errorf("UserID() = %q", d.UserID())
	}
}
