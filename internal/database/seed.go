// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"fmt"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// Demo user ids written by SeedDemo.
const (
	DemoSuperAdminID = "demo-super-admin"
	DemoAdminID      = "demo-admin"
	DemoModeratorID  = "demo-moderator"
	DemoOwnerID      = "demo-owner"
	DemoMemberID     = "demo-member"
	DemoNewUserID    = "demo-new-user"
	DemoTeamID       = "demo-team"
)

// SeedDemo fills m with one user per role, a team and a few owned
// resources. Used in development mode only.
func SeedDemo(m *Memory) error {
	profiles := []models.Profile{
		{UserID: DemoSuperAdminID, Role: "super_admin", OnboardingCompleted: true, SubscriptionTier: models.TierEnterprise},
		{UserID: DemoAdminID, Role: "admin", OnboardingCompleted: true, SubscriptionTier: models.TierPro},
		{UserID: DemoModeratorID, Role: "moderator", OnboardingCompleted: true, SubscriptionTier: models.TierStarter},
		{UserID: DemoOwnerID, Role: "user", OnboardingCompleted: true, SubscriptionTier: models.TierPro},
		{UserID: DemoMemberID, Role: "user", OnboardingCompleted: true},
		{UserID: DemoNewUserID, OnboardingCompleted: false},
	}
	for _, p := range profiles {
		m.PutProfile(p)
	}

	m.AddMembership(models.TeamMembership{TeamID: DemoTeamID, UserID: DemoOwnerID, Role: models.TeamRoleOwner})
	m.AddMembership(models.TeamMembership{TeamID: DemoTeamID, UserID: DemoMemberID, Role: models.TeamRoleMember})

	resources := []models.ResourceOwner{
		{ResourceType: models.ResourceTeams, ResourceID: DemoTeamID, UserID: DemoOwnerID, TeamID: DemoTeamID},
		{ResourceType: models.ResourcePages, ResourceID: "page_42", UserID: DemoOwnerID, TeamID: DemoTeamID},
		{ResourceType: models.ResourcePages, ResourceID: "page_43", UserID: DemoMemberID},
		{ResourceType: models.ResourceResources, ResourceID: "ebook_1", UserID: DemoOwnerID, TeamID: DemoTeamID},
		{ResourceType: models.ResourceLeads, ResourceID: "lead_1", UserID: DemoOwnerID, TeamID: DemoTeamID},
		{ResourceType: models.ResourceDomains, ResourceID: "dom_1", UserID: DemoOwnerID},
	}
	for _, r := range resources {
		if err := m.PutResource(r); err != nil {
			return fmt.Errorf("seed %s/%s: %w", r.ResourceType, r.ResourceID, err)
		}
	}

	logging.Info().Int("profiles", len(profiles)).Int("resources", len(resources)).Msg("Seeded demo platform data")
	return nil
}
