// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package authz

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/gatehouse/internal/models"
)

//go:embed model.conf
var embeddedModel string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// CacheEnabled enables decision caching.
	CacheEnabled bool

	// CacheTTL is how long decisions are cached.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
	}
}

// Enforcer evaluates (role, permission) pairs against the Casbin policy
// generated from the static matrix.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *ttlCache[bool]
}

// NewEnforcer builds the enforcer from the embedded model and the matrix.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	policies, grouping := policyLines()
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(grouping); err != nil {
		return nil, fmt.Errorf("failed to add role hierarchy: %w", err)
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}
	if config.CacheEnabled {
		e.cache = newTTLCache[bool]("enforcer", config.CacheTTL)
	}
	return e, nil
}

// Enforce reports whether role holds perm. Undeclared tokens are rejected
// before the policy is consulted.
func (e *Enforcer) Enforce(role models.Role, perm models.Permission) (bool, error) {
	if !perm.IsKnown() {
		return false, nil
	}
	if !role.Valid() {
		role = models.RoleGuest
	}

	key := role.String() + ":" + string(perm)
	if e.cache != nil {
		if allowed, ok := e.cache.get(key); ok {
			return allowed, nil
		}
	}

	recordPolicyEvaluation()
	allowed, err := e.enforcer.Enforce(role.String(), string(perm))
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(key, allowed)
	}
	return allowed, nil
}

// ImplicitPermissions returns the permission tokens Casbin resolves for role,
// including inherited ones.
func (e *Enforcer) ImplicitPermissions(role models.Role) ([]string, error) {
	rules, err := e.enforcer.GetImplicitPermissionsForUser(role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 2 {
			out = append(out, rule[1])
		}
	}
	return out, nil
}

// GetPolicy returns all p rules.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // GetPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// GetGroupingPolicy returns the role hierarchy rules.
func (e *Enforcer) GetGroupingPolicy() [][]string {
	//nolint:errcheck // GetGroupingPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetGroupingPolicy()
	return policies
}

// Close stops background work.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
