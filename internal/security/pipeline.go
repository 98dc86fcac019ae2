// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
)

// Authenticator is the authentication layer as seen by the pipeline.
type Authenticator interface {
	Authenticate(ctx context.Context, opts auth.AuthOptions) auth.Outcome
}

// Authorizer is the role and permission layer.
type Authorizer interface {
	CheckAuthorization(ctx context.Context, userID string, opts authz.Options) models.SecurityCheckResult
}

// OwnershipChecker is the ownership layer.
type OwnershipChecker interface {
	CheckOwnership(ctx context.Context, userID string, opts ownership.Options) models.SecurityCheckResult
}

// AuditSink receives denials and sensitive grants. It must not block.
type AuditSink interface {
	LogSecurityEvent(ctx context.Context, ev audit.SecurityEvent)
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// CheckTimeout bounds one full evaluation. A check still running when it
	// expires is denied at the layer it was in.
	CheckTimeout time.Duration
}

// DefaultPipelineConfig returns the production defaults.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{CheckTimeout: 5 * time.Second}
}

// OwnershipOptions are the ownership parameters of a standalone check.
type OwnershipOptions struct {
	AllowTeamAccess   bool
	RequiredTeamRoles []models.TeamRole
}

// Decision is a check result together with the caller it was made for.
// User is nil for anonymous callers.
type Decision struct {
	models.SecurityCheckResult
	User *models.Identity
}

// UserID returns the caller's id or "".
func (d Decision) UserID() string {
	if d.User == nil {
		return ""
	}
	return d.User.ID
}

// Pipeline composes the layers in fixed order: authentication, then
// authorization, then ownership. The first denial ends the evaluation.
type Pipeline struct {
	authn   Authenticator
	authz   Authorizer
	owner   OwnershipChecker
	audit   AuditSink
	timeout time.Duration
}

// NewPipeline creates a Pipeline. owner and sink may be nil; configs that
// need ownership then fail closed.
func NewPipeline(authn Authenticator, authorizer Authorizer, owner OwnershipChecker, sink AuditSink, config *PipelineConfig) *Pipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	timeout := config.CheckTimeout
	if timeout <= 0 {
		timeout = DefaultPipelineConfig().CheckTimeout
	}
	return &Pipeline{
		authn:   authn,
		authz:   authorizer,
		owner:   owner,
		audit:   sink,
		timeout: timeout,
	}
}

// RunSecurityChecks evaluates the authentication and authorization layers
// of cfg. Ownership is not evaluated.
func (p *Pipeline) RunSecurityChecks(ctx context.Context, cfg Config) models.SecurityCheckResult {
	cfg.Ownership = nil
	return p.Check(ctx, cfg, "").SecurityCheckResult
}

// RunFullSecurityCheck evaluates every layer of cfg against resourceID.
func (p *Pipeline) RunFullSecurityCheck(ctx context.Context, cfg Config, resourceID string) models.SecurityCheckResult {
	return p.Check(ctx, cfg, resourceID).SecurityCheckResult
}

// RunOwnershipCheck checks the signed-in caller's access to one resource.
func (p *Pipeline) RunOwnershipCheck(ctx context.Context, resourceType models.ResourceType, resourceID string, opts OwnershipOptions) models.SecurityCheckResult {
	cfg := Config{
		Name:        "ownership",
		RequireAuth: true,
		Ownership: &OwnershipSpec{
			ResourceType:      resourceType,
			IDParam:           DefaultIDParam,
			AllowTeamAccess:   opts.AllowTeamAccess,
			RequiredTeamRoles: opts.RequiredTeamRoles,
		},
	}
	return p.Check(ctx, cfg, resourceID).SecurityCheckResult
}

// Check runs the pipeline for cfg and returns the decision with the
// resolved caller. resourceID is ignored when cfg has no ownership
// requirement.
func (p *Pipeline) Check(ctx context.Context, cfg Config, resourceID string) Decision {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	d := p.evaluate(ctx, &cfg, resourceID)

	RecordCheck(cfg.Label(), d.SecurityCheckResult, time.Since(start))
	p.report(ctx, &cfg, resourceID, d)
	return d
}

func (p *Pipeline) evaluate(ctx context.Context, cfg *Config, resourceID string) Decision {
	outcome, failed := callLayer(ctx, models.LayerAuthentication, func(ctx context.Context) auth.Outcome {
		if p.authn == nil {
			return auth.Outcome{Result: denyFor(models.LayerAuthentication, "no authenticator configured")}
		}
		return p.authn.Authenticate(ctx, cfg.AuthOptions())
	})
	if failed != nil {
		return Decision{SecurityCheckResult: *failed}
	}
	d := Decision{SecurityCheckResult: outcome.Result, User: outcome.User}
	if !d.Allowed {
		return d
	}

	userID := d.UserID()
	authzOpts := cfg.AuthzOptions()
	if !authzOpts.IsEmpty() {
		result, failed := callLayer(ctx, models.LayerAuthorization, func(ctx context.Context) models.SecurityCheckResult {
			if p.authz == nil {
				return denyFor(models.LayerAuthorization, "no authorizer configured")
			}
			return p.authz.CheckAuthorization(ctx, userID, authzOpts)
		})
		if failed != nil {
			d.SecurityCheckResult = *failed
			return d
		}
		if !result.Allowed {
			d.SecurityCheckResult = result
			return d
		}
	}

	if cfg.Ownership == nil {
		return d
	}
	if resourceID == "" {
		d.SecurityCheckResult = models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, "resource id missing")
		return d
	}
	ownerOpts := cfg.OwnershipOptions(resourceID)
	result, failed := callLayer(ctx, models.LayerOwnership, func(ctx context.Context) models.SecurityCheckResult {
		if p.owner == nil {
			return denyFor(models.LayerOwnership, "no ownership checker configured")
		}
		return p.owner.CheckOwnership(ctx, userID, ownerOpts)
	})
	if failed != nil {
		d.SecurityCheckResult = *failed
		return d
	}
	d.SecurityCheckResult = result
	return d
}

// report logs the decision and forwards denials and sensitive grants to the
// audit sink.
func (p *Pipeline) report(ctx context.Context, cfg *Config, resourceID string, d Decision) {
	logger := logging.Ctx(ctx)
	if !d.Allowed {
		logger.Debug().
			Str("config", cfg.Label()).
			Str("user_id", logging.RedactUserID(d.UserID())).
			Str("layer", string(d.Layer)).
			Str("reason", string(d.DeniedReason)).
			Msg("Access denied")
	}

	if p.audit == nil || (d.Allowed && !cfg.Sensitive) {
		return
	}

	action := audit.ActionAccessCheck
	if d.Layer == models.LayerOwnership {
		action = audit.ActionOwnershipCheck
	}
	var resourceType string
	if cfg.Ownership != nil {
		resourceType = string(cfg.Ownership.ResourceType)
	} else {
		resourceID = ""
	}

	ev := audit.NewDecisionEvent(d.UserID(), action, resourceType, resourceID, d.SecurityCheckResult)
	if src, ok := auditSourceFromContext(ctx); ok {
		ev.Source = src
	}
	ev = ev.WithMetadata(map[string]string{"config": cfg.Label(), "details": d.Details})

	// The check context may already be past its deadline.
	p.audit.LogSecurityEvent(context.WithoutCancel(ctx), ev)
}

// denyFor returns the most restrictive denial for a layer that could not
// produce an answer.
func denyFor(layer models.Layer, details string) models.SecurityCheckResult {
	switch layer {
	case models.LayerAuthorization:
		return models.Deny(layer, models.ReasonInsufficientPermissions, details)
	case models.LayerOwnership:
		return models.Deny(layer, models.ReasonNotResourceOwner, details)
	default:
		return models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, details)
	}
}

type layerResult[T any] struct {
	value     T
	recovered interface{}
}

// callLayer runs fn on its own goroutine so a layer that ignores ctx cannot
// hold the caller past the deadline. A non-nil result replaces the layer's
// answer: a timeout denies at the layer, a panic denies as unauthenticated.
func callLayer[T any](ctx context.Context, layer models.Layer, fn func(context.Context) T) (T, *models.SecurityCheckResult) {
	var zero T
	if err := ctx.Err(); err != nil {
		res := timeoutResult(layer, err)
		return zero, &res
	}

	done := make(chan layerResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Ctx(ctx).Error().
					Str("layer", string(layer)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("Security layer panicked")
				done <- layerResult[T]{recovered: r}
			}
		}()
		done <- layerResult[T]{value: fn(ctx)}
	}()

	select {
	case out := <-done:
		if out.recovered != nil {
			RecordLayerFailure(layer, "panic")
			res := models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, "access check failed")
			return zero, &res
		}
		return out.value, nil
	case <-ctx.Done():
		res := timeoutResult(layer, ctx.Err())
		return zero, &res
	}
}

func timeoutResult(layer models.Layer, err error) models.SecurityCheckResult {
	kind := "canceled"
	details := "access check canceled"
	if errors.Is(err, context.DeadlineExceeded) {
		kind = "timeout"
		details = "access check timed out"
	}
	RecordLayerFailure(layer, kind)
	return denyFor(layer, details)
}

type auditSourceKey struct{}

// WithAuditSource attaches the request origin recorded on audit events.
func WithAuditSource(ctx context.Context, src audit.Source) context.Context {
	return context.WithValue(ctx, auditSourceKey{}, src)
}

func auditSourceFromContext(ctx context.Context) (audit.Source, bool) {
	src, ok := ctx.Value(auditSourceKey{}).(audit.Source)
	return src, ok
}
