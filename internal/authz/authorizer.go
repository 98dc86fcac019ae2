// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package authz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// ProfileProvider is the per-user role lookup.
//
// GetProfile returns (nil, nil) when the lookup succeeded but no profile row
// exists, and an error for any lookup failure.
type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// AuthorizerConfig holds configuration for the Authorizer.
type AuthorizerConfig struct {
	// RoleCacheEnabled caches successful role lookups.
	RoleCacheEnabled bool

	// RoleCacheTTL bounds how stale a cached role may be.
	RoleCacheTTL time.Duration
}

// DefaultAuthorizerConfig returns default configuration.
func DefaultAuthorizerConfig() *AuthorizerConfig {
	return &AuthorizerConfig{
		RoleCacheEnabled: true,
		RoleCacheTTL:     30 * time.Second,
	}
}

// Options are the criteria checked by CheckAuthorization. Supplied criteria
// are combined with AND. No criteria means the check passes.
type Options struct {
	RequiredPermissions      []models.Permission
	RequiredAnyPermission    []models.Permission
	MinimumRole              *models.Role
	AllowedRoles             []models.Role
	RequiredSubscriptionTier *models.SubscriptionTier
}

// IsEmpty reports whether no criterion is set.
func (o *Options) IsEmpty() bool {
	return len(o.RequiredPermissions) == 0 &&
		len(o.RequiredAnyPermission) == 0 &&
		o.MinimumRole == nil &&
		len(o.AllowedRoles) == 0 &&
		o.RequiredSubscriptionTier == nil
}

// Subject is a user's resolved role and plan.
type Subject struct {
	UserID string
	Role   models.Role
	Tier   models.SubscriptionTier
}

// Authorizer is the authorization layer.
type Authorizer struct {
	enforcer  *Enforcer
	profiles  ProfileProvider
	config    *AuthorizerConfig
	roleCache *ttlCache[Subject]
}

// NewAuthorizer creates an Authorizer. profiles may be nil, in which case every
// user resolves to guest.
func NewAuthorizer(enforcer *Enforcer, profiles ProfileProvider, config *AuthorizerConfig) *Authorizer {
	if config == nil {
		config = DefaultAuthorizerConfig()
	}
	a := &Authorizer{
		enforcer: enforcer,
		profiles: profiles,
		config:   config,
	}
	if config.RoleCacheEnabled {
		a.roleCache = newTTLCache[Subject]("role", config.RoleCacheTTL)
	}
	return a
}

// Close stops background work.
func (a *Authorizer) Close() {
	if a.roleCache != nil {
		a.roleCache.stop()
	}
}

// InvalidateUser drops a cached role so the next lookup hits the store.
func (a *Authorizer) InvalidateUser(userID string) {
	if a.roleCache != nil {
		a.roleCache.invalidate(userID)
	}
}

// ResolveSubject looks up the user's role and plan. Every failure narrows to
// guest on the free tier.
func (a *Authorizer) ResolveSubject(ctx context.Context, userID string) Subject {
	if userID == "" {
		RecordRoleLookup("anonymous")
		return Subject{Role: models.RoleGuest, Tier: models.TierFree}
	}

	if a.roleCache != nil {
		if s, ok := a.roleCache.get(userID); ok {
			RecordRoleLookup("cached")
			return s
		}
	}

	guest := Subject{UserID: userID, Role: models.RoleGuest, Tier: models.TierFree}
	if a.profiles == nil {
		RecordRoleLookup("not_found")
		return guest
	}

	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		RecordRoleLookup("error")
		logging.Ctx(ctx).Warn().
			Str("user_id", logging.RedactUserID(userID)).
			Str("error", logging.RedactError(err)).
			Msg("Role lookup failed, defaulting to guest")
		return guest
	}
	if profile == nil {
		RecordRoleLookup("not_found")
		return guest
	}

	s := Subject{UserID: userID, Tier: profile.SubscriptionTier}
	if strings.TrimSpace(profile.Role) == "" {
		RecordRoleLookup("default_user")
		s.Role = models.RoleUser
	} else {
		RecordRoleLookup("found")
		s.Role = models.ParseRole(profile.Role)
	}

	if a.roleCache != nil {
		a.roleCache.set(userID, s)
	}
	return s
}

// GetUserRole returns the user's role. It never fails; see ResolveSubject.
func (a *Authorizer) GetUserRole(ctx context.Context, userID string) models.Role {
	return a.ResolveSubject(ctx, userID).Role
}

// GetPermissionsForRole returns the role's permission set as the enforcer
// resolves it, inherited grants included, in matrix order. Without an
// enforcer, or when resolution fails, the static matrix answers.
func (a *Authorizer) GetPermissionsForRole(role models.Role) []models.Permission {
	if a.enforcer == nil {
		return GetPermissionsForRole(role)
	}
	if !role.Valid() {
		role = models.RoleGuest
	}

	tokens, err := a.enforcer.ImplicitPermissions(role)
	if err != nil {
		logging.Error().Err(err).Str("role", role.String()).Msg("Failed to resolve role permissions, using static table")
		return GetPermissionsForRole(role)
	}

	held := make(map[models.Permission]struct{}, len(tokens))
	for _, tok := range tokens {
		held[models.Permission(tok)] = struct{}{}
	}

	out := make([]models.Permission, 0, len(held))
	if _, ok := held[models.PermissionAll]; ok {
		out = append(out, models.PermissionAll)
	}
	for _, p := range models.AllPermissions {
		if _, ok := held[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// HasPermission reports whether the user's role holds perm.
func (a *Authorizer) HasPermission(ctx context.Context, userID string, perm models.Permission) bool {
	return a.roleAllows(ctx, a.GetUserRole(ctx, userID), perm)
}

// roleAllows consults the enforcer when present and the static table
// otherwise. An enforcer error denies.
func (a *Authorizer) roleAllows(ctx context.Context, role models.Role, perm models.Permission) bool {
	if a.enforcer == nil {
		return RoleHasPermission(role, perm)
	}
	allowed, err := a.enforcer.Enforce(role, perm)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("role", role.String()).
			Str("permission", string(perm)).
			Msg("Policy evaluation failed, denying")
		return false
	}
	return allowed
}

// CheckAuthorization evaluates opts for userID.
//
// super_admin bypasses the permission, allow-list and subscription criteria,
// but undeclared permission tokens are never granted. The minimum role
// criterion is still compared and always passes for it.
func (a *Authorizer) CheckAuthorization(ctx context.Context, userID string, opts Options) models.SecurityCheckResult {
	start := time.Now()
	subject := a.ResolveSubject(ctx, userID)
	res := a.CheckSubject(ctx, subject, opts)
	RecordAuthzDecision(subject.Role.String(), res.Allowed, string(res.DeniedReason), time.Since(start))
	return res
}

// CheckSubject evaluates opts for an already resolved subject.
func (a *Authorizer) CheckSubject(ctx context.Context, subject Subject, opts Options) models.SecurityCheckResult {
	if opts.IsEmpty() {
		return models.Allow()
	}

	role := subject.Role
	bypass := role == models.RoleSuperAdmin

	allows := func(perm models.Permission) bool {
		if bypass {
			return perm.IsKnown()
		}
		return a.roleAllows(ctx, role, perm)
	}

	for _, perm := range opts.RequiredPermissions {
		if !allows(perm) {
			return models.Deny(models.LayerAuthorization, models.ReasonInsufficientPermissions,
				fmt.Sprintf("role %s lacks %s", role, perm))
		}
	}

	if len(opts.RequiredAnyPermission) > 0 {
		found := false
		for _, perm := range opts.RequiredAnyPermission {
			if allows(perm) {
				found = true
				break
			}
		}
		if !found {
			return models.Deny(models.LayerAuthorization, models.ReasonInsufficientPermissions,
				fmt.Sprintf("role %s holds none of %s", role, joinPermissions(opts.RequiredAnyPermission)))
		}
	}

	if opts.MinimumRole != nil && !role.AtLeast(*opts.MinimumRole) {
		return models.Deny(models.LayerAuthorization, models.ReasonInsufficientRoleLevel,
			fmt.Sprintf("role %s is below %s", role, *opts.MinimumRole))
	}

	if !bypass && len(opts.AllowedRoles) > 0 && !containsRole(opts.AllowedRoles, role) {
		return models.Deny(models.LayerAuthorization, models.ReasonRoleNotAllowed,
			fmt.Sprintf("role %s is not allowed", role))
	}

	if !bypass && opts.RequiredSubscriptionTier != nil && !subject.Tier.AtLeast(*opts.RequiredSubscriptionTier) {
		return models.Deny(models.LayerAuthorization, models.ReasonSubscriptionRequired,
			fmt.Sprintf("plan %s is below %s", subject.Tier, *opts.RequiredSubscriptionTier))
	}

	return models.Allow()
}

func containsRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func joinPermissions(perms []models.Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}
