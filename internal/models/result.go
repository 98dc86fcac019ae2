// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

// Layer identifies the check layer that produced a decision.
type Layer string

const (
	LayerAuthentication Layer = "authentication"
	LayerAuthorization  Layer = "authorization"
	LayerOwnership      Layer = "ownership"
	LayerDatabase       Layer = "database"
)

// DeniedReason is the stable, enumerated cause of a denial.
type DeniedReason string

const (
	ReasonNotAuthenticated        DeniedReason = "not_authenticated"
	ReasonEmailNotVerified        DeniedReason = "email_not_verified"
	ReasonOnboardingIncomplete    DeniedReason = "onboarding_incomplete"
	ReasonInsufficientPermissions DeniedReason = "insufficient_permissions"
	ReasonInsufficientRoleLevel   DeniedReason = "insufficient_role_level"
	ReasonRoleNotAllowed          DeniedReason = "role_not_allowed"
	ReasonNotResourceOwner        DeniedReason = "not_resource_owner"
	ReasonNotTeamMember           DeniedReason = "not_team_member"
	ReasonSubscriptionRequired    DeniedReason = "subscription_required"
)

// AllDeniedReasons lists every reason in declaration order.
var AllDeniedReasons = []DeniedReason{
	ReasonNotAuthenticated,
	ReasonEmailNotVerified,
	ReasonOnboardingIncomplete,
	ReasonInsufficientPermissions,
	ReasonInsufficientRoleLevel,
	ReasonRoleNotAllowed,
	ReasonNotResourceOwner,
	ReasonNotTeamMember,
	ReasonSubscriptionRequired,
}

// LayerFor returns the layer that owns a reason.
func (r DeniedReason) LayerFor() Layer {
	switch r {
	case ReasonNotAuthenticated, ReasonEmailNotVerified, ReasonOnboardingIncomplete:
		return LayerAuthentication
	case ReasonInsufficientPermissions, ReasonInsufficientRoleLevel,
		ReasonRoleNotAllowed, ReasonSubscriptionRequired:
		return LayerAuthorization
	case ReasonNotResourceOwner, ReasonNotTeamMember:
		return LayerOwnership
	default:
		return LayerAuthentication
	}
}

// SecurityCheckResult is the output of any layer and of the composer.
// It is built fresh per check and never persisted.
type SecurityCheckResult struct {
	Allowed      bool         `json:"allowed"`
	DeniedReason DeniedReason `json:"denied_reason,omitempty"`
	Layer        Layer        `json:"layer,omitempty"`
	Details      string       `json:"details,omitempty"`
}

// Allow returns a passing result.
func Allow() SecurityCheckResult {
	return SecurityCheckResult{Allowed: true}
}

// Deny returns a failing result tagged with the layer that produced it.
func Deny(layer Layer, reason DeniedReason, details string) SecurityCheckResult {
	return SecurityCheckResult{
		Allowed:      false,
		DeniedReason: reason,
		Layer:        layer,
		Details:      details,
	}
}
