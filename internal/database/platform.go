// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/gatehouse/internal/models"
)

// Platform table and column names.
const (
	tableProfiles    = "profiles"
	tableTeamMembers = "team_members"
)

// GetProfile returns the profile row for userID, or (nil, nil) when none
// exists.
func (p *Postgres) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	row, err := p.SelectOne(ctx, tableProfiles,
		[]string{"id", "onboarding_completed", "role", "subscription_tier"},
		map[string]any{"id": userID})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &models.Profile{
		UserID:              stringValue(row["id"]),
		OnboardingCompleted: boolValue(row["onboarding_completed"]),
		Role:                stringValue(row["role"]),
		SubscriptionTier:    models.ParseSubscriptionTier(stringValue(row["subscription_tier"])),
	}, nil
}

// GetMemberships returns every team membership of userID.
func (p *Postgres) GetMemberships(ctx context.Context, userID string) ([]models.TeamMembership, error) {
	rows, err := p.selectMany(ctx, tableTeamMembers,
		`SELECT "team_id", "user_id", "role" FROM "team_members" WHERE "user_id" = $1 ORDER BY "team_id"`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("get memberships: %w", err)
	}

	out := make([]models.TeamMembership, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.TeamMembership{
			TeamID: stringValue(row["team_id"]),
			UserID: stringValue(row["user_id"]),
			Role:   models.ParseTeamRole(stringValue(row["role"])),
		})
	}
	return out, nil
}

// GetResourceOwner resolves the owner columns of a resource through the
// resource-config table. It returns (nil, nil) when the resource does not
// exist.
func (p *Postgres) GetResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID string) (*models.ResourceOwner, error) {
	cfg, ok := resourceType.Config()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResourceType, resourceType)
	}

	columns := []string{cfg.OwnerUserColumn}
	if cfg.OwnerTeamColumn != "" && cfg.OwnerTeamColumn != cfg.OwnerUserColumn {
		columns = append(columns, cfg.OwnerTeamColumn)
	}

	row, err := p.SelectOne(ctx, cfg.Table, columns, map[string]any{cfg.IDColumn: resourceID})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s owner: %w", resourceType, err)
	}

	owner := &models.ResourceOwner{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		UserID:       stringValue(row[cfg.OwnerUserColumn]),
	}
	if cfg.OwnerTeamColumn != "" {
		owner.TeamID = stringValue(row[cfg.OwnerTeamColumn])
	}
	return owner, nil
}
