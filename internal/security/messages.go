// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"net/http"

	"github.com/tomtom215/gatehouse/internal/models"
)

// Redirect targets for denials that need the user to do something first.
const (
	PathAuth        = "/auth"
	PathVerifyEmail = "/auth/verify-email"
	PathOnboarding  = "/onboarding"
	PathPricing     = "/pricing"
	PathDashboard   = "/dashboard"
)

var errorMessages = map[models.DeniedReason]string{
	models.ReasonNotAuthenticated:        "Please sign in to continue.",
	models.ReasonEmailNotVerified:        "Please verify your email address to continue.",
	models.ReasonOnboardingIncomplete:    "Please finish setting up your account to continue.",
	models.ReasonInsufficientPermissions: "You don't have permission to do that.",
	models.ReasonInsufficientRoleLevel:   "You don't have the access level required for this page.",
	models.ReasonRoleNotAllowed:          "Your role doesn't have access to this page.",
	models.ReasonNotResourceOwner:        "You don't have access to this item.",
	models.ReasonNotTeamMember:           "You're not a member of this team.",
	models.ReasonSubscriptionRequired:    "Upgrade your plan to use this feature.",
}

// ErrorMessage returns the user-facing copy for a denial. It returns "" for
// an allowed result.
func ErrorMessage(result models.SecurityCheckResult) string {
	if result.Allowed {
		return ""
	}
	if msg, ok := errorMessages[result.DeniedReason]; ok {
		return msg
	}
	return "Access denied."
}

// RedirectPath returns where a denied user is sent. Authentication denials
// have fixed targets; everything else goes to fallback, or the dashboard
// when fallback is empty. It returns "" for an allowed result.
func RedirectPath(result models.SecurityCheckResult, fallback string) string {
	if result.Allowed {
		return ""
	}
	switch result.DeniedReason {
	case models.ReasonNotAuthenticated:
		return PathAuth
	case models.ReasonEmailNotVerified:
		return PathVerifyEmail
	case models.ReasonOnboardingIncomplete:
		return PathOnboarding
	case models.ReasonSubscriptionRequired:
		return PathPricing
	}
	if fallback != "" {
		return fallback
	}
	return PathDashboard
}

// StatusCode maps a denial to an HTTP status: 401 when the caller must sign
// in, 403 otherwise.
func StatusCode(result models.SecurityCheckResult) int {
	switch {
	case result.Allowed:
		return http.StatusOK
	case result.DeniedReason == models.ReasonNotAuthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

// ErrorCode returns the machine-readable API error code for a denial.
func ErrorCode(result models.SecurityCheckResult) string {
	switch StatusCode(result) {
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	}
	return ""
}
