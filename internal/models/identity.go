// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

import "time"

// Identity is the identity provider's user record. Only the ID is
// authoritative for access decisions.
type Identity struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailVerified    bool                   `json:"email_verified"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Session is a provider session bound to a user.
type Session struct {
	AccessToken string    `json:"-"`
	User        *Identity `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
	Provider    string    `json:"provider"`
}

// IsValid reports whether the session carries a user and an unexpired token.
func (s *Session) IsValid() bool {
	return s.IsValidAt(time.Now())
}

// IsValidAt is IsValid evaluated at now.
func (s *Session) IsValidAt(now time.Time) bool {
	if s == nil || s.User == nil || s.User.ID == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// Profile is the per-user row holding onboarding state, the role column and
// the subscription plan.
type Profile struct {
	UserID              string           `json:"user_id"`
	OnboardingCompleted bool             `json:"onboarding_completed"`
	Role                string           `json:"role,omitempty"`
	SubscriptionTier    SubscriptionTier `json:"subscription_tier"`
}

// TeamMembership is one (team, user) row.
type TeamMembership struct {
	TeamID string   `json:"team_id"`
	UserID string   `json:"user_id"`
	Role   TeamRole `json:"role"`
}

// ResourceOwner is the resolved owning identity of a resource instance.
// TeamID is empty when the resource is not team owned.
type ResourceOwner struct {
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   string       `json:"resource_id"`
	UserID       string       `json:"user_id"`
	TeamID       string       `json:"team_id,omitempty"`
}
