// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package ownership

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// TeamStore reads team memberships.
type TeamStore interface {
	GetMemberships(ctx context.Context, userID string) ([]models.TeamMembership, error)
}

// ResourceStore reads a resource's owner. It returns (nil, nil) when the
// resource does not exist.
type ResourceStore interface {
	GetResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID string) (*models.ResourceOwner, error)
}

// Options describe one ownership requirement.
type Options struct {
	ResourceType      models.ResourceType
	ResourceID        string
	AllowTeamAccess   bool
	RequiredTeamRoles []models.TeamRole
}

// CheckerConfig holds configuration for the Checker.
type CheckerConfig struct {
	// BatchConcurrency bounds parallel lookups in CheckOwnershipMultiple.
	BatchConcurrency int
}

// DefaultCheckerConfig returns default configuration.
func DefaultCheckerConfig() *CheckerConfig {
	return &CheckerConfig{BatchConcurrency: 8}
}

// Checker is the ownership layer.
type Checker struct {
	teams     TeamStore
	resources ResourceStore
	config    *CheckerConfig
}

// NewChecker creates a Checker.
func NewChecker(teams TeamStore, resources ResourceStore, config *CheckerConfig) *Checker {
	if config == nil {
		config = DefaultCheckerConfig()
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 1
	}
	return &Checker{teams: teams, resources: resources, config: config}
}

// memberships returns the user's memberships keyed by team id. Lookup
// failures yield an empty map.
func (c *Checker) memberships(ctx context.Context, userID string) map[string]models.TeamRole {
	out := make(map[string]models.TeamRole)
	if userID == "" || c.teams == nil {
		return out
	}
	rows, err := c.teams.GetMemberships(ctx, userID)
	if err != nil {
		RecordLookupError("team")
		logging.Ctx(ctx).Warn().
			Str("user_id", logging.RedactUserID(userID)).
			Err(err).
			Msg("Team membership lookup failed, treating as no teams")
		return out
	}
	for _, m := range rows {
		if m.UserID != "" && m.UserID != userID {
			continue
		}
		out[m.TeamID] = m.Role
	}
	return out
}

// GetUserTeamIDs returns the ids of every team the user belongs to.
func (c *Checker) GetUserTeamIDs(ctx context.Context, userID string) []string {
	m := c.memberships(ctx, userID)
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// owner resolves the resource owner. Missing resources and lookup errors
// both return nil.
func (c *Checker) owner(ctx context.Context, resourceType models.ResourceType, resourceID string) *models.ResourceOwner {
	if c.resources == nil || resourceID == "" || !resourceType.Valid() {
		return nil
	}
	owner, err := c.resources.GetResourceOwner(ctx, resourceType, resourceID)
	if err != nil {
		RecordLookupError("resource")
		logging.Ctx(ctx).Warn().
			Str("resource_type", string(resourceType)).
			Str("resource_id", resourceID).
			Err(err).
			Msg("Resource owner lookup failed, denying")
		return nil
	}
	return owner
}

// IsResourceOwner reports whether userID is the resource's owning user.
func (c *Checker) IsResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID, userID string) bool {
	if userID == "" {
		return false
	}
	owner := c.owner(ctx, resourceType, resourceID)
	return owner != nil && owner.UserID == userID
}

// IsTeamResourceOwner reports whether the resource's owning team is one of
// teamIDs.
func (c *Checker) IsTeamResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID string, teamIDs []string) bool {
	owner := c.owner(ctx, resourceType, resourceID)
	if owner == nil || owner.TeamID == "" {
		return false
	}
	for _, id := range teamIDs {
		if id == owner.TeamID {
			return true
		}
	}
	return false
}

// CheckOwnership evaluates opts for userID.
func (c *Checker) CheckOwnership(ctx context.Context, userID string, opts Options) models.SecurityCheckResult {
	start := time.Now()
	if userID == "" {
		res := models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, "ownership requires a user")
		RecordOwnershipCheck(opts.ResourceType, res, "none", time.Since(start))
		return res
	}

	var teams map[string]models.TeamRole
	if opts.AllowTeamAccess {
		teams = c.memberships(ctx, userID)
	}
	res, via := c.evaluate(ctx, userID, opts, c.owner(ctx, opts.ResourceType, opts.ResourceID), teams)
	RecordOwnershipCheck(opts.ResourceType, res, via, time.Since(start))
	return res
}

// evaluate applies the ownership rule to an already resolved owner. via is
// "owner", "team" or "none".
func (c *Checker) evaluate(ctx context.Context, userID string, opts Options, owner *models.ResourceOwner, teams map[string]models.TeamRole) (models.SecurityCheckResult, string) {
	deny := func(details string) (models.SecurityCheckResult, string) {
		return models.Deny(models.LayerOwnership, models.ReasonNotResourceOwner, details), "none"
	}

	if ctx.Err() != nil {
		return deny("check canceled")
	}
	if owner == nil {
		return deny(fmt.Sprintf("%s %s is not accessible", opts.ResourceType, opts.ResourceID))
	}
	if owner.UserID == userID {
		return models.Allow(), "owner"
	}

	cfg, _ := opts.ResourceType.Config()
	if !opts.AllowTeamAccess || !cfg.SupportsTeamRead || owner.TeamID == "" {
		return deny(fmt.Sprintf("%s %s is not owned by the caller", opts.ResourceType, opts.ResourceID))
	}

	role, member := teams[owner.TeamID]
	if !member {
		return deny(fmt.Sprintf("%s %s belongs to a team the caller is not in", opts.ResourceType, opts.ResourceID))
	}
	if len(opts.RequiredTeamRoles) > 0 && !containsTeamRole(opts.RequiredTeamRoles, role) {
		return deny(fmt.Sprintf("team role %s is not sufficient", role))
	}
	return models.Allow(), "team"
}

// CheckOwnershipMultiple applies the ownership rule to every id
// independently. Memberships are resolved once. Every id is evaluated even
// when others fail.
func (c *Checker) CheckOwnershipMultiple(ctx context.Context, userID string, resourceType models.ResourceType, resourceIDs []string, opts Options) map[string]bool {
	results := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		results[id] = false
	}
	if userID == "" || len(resourceIDs) == 0 {
		return results
	}

	var teams map[string]models.TeamRole
	if opts.AllowTeamAccess {
		teams = c.memberships(ctx, userID)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.config.BatchConcurrency)

	for _, id := range resourceIDs {
		g.Go(func() error {
			itemOpts := opts
			itemOpts.ResourceType = resourceType
			itemOpts.ResourceID = id
			res, via := c.evaluate(ctx, userID, itemOpts, c.owner(ctx, resourceType, id), teams)
			RecordOwnershipCheck(resourceType, res, via, 0)

			mu.Lock()
			results[id] = res.Allowed
			mu.Unlock()
			return nil
		})
	}
	//nolint:errcheck // workers never return errors
	g.Wait()

	return results
}

// CheckTeamMembership decides access to a team itself: the caller must be a
// member and, when roles are given, hold one of them.
func (c *Checker) CheckTeamMembership(ctx context.Context, userID, teamID string, roles []models.TeamRole) models.SecurityCheckResult {
	if userID == "" {
		return models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated, "team access requires a user")
	}
	role, ok := c.memberships(ctx, userID)[teamID]
	if !ok {
		return models.Deny(models.LayerOwnership, models.ReasonNotTeamMember, "caller is not a member of the team")
	}
	if len(roles) > 0 && !containsTeamRole(roles, role) {
		return models.Deny(models.LayerOwnership, models.ReasonNotTeamMember,
			fmt.Sprintf("team role %s is not sufficient", role))
	}
	return models.Allow()
}

func containsTeamRole(roles []models.TeamRole, role models.TeamRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
