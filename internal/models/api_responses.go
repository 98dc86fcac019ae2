// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

import "time"

// APIResponse is the envelope used by every JSON endpoint.
//
// Status is "success" or "error". Error is set only for "error".
//
//	{
//	  "status": "error",
//	  "error": {"code": "FORBIDDEN", "message": "You don't have permission to do that."},
//	  "metadata": {"timestamp": "2026-01-10T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries a machine-readable code and user-facing message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AccessState is the body of GET /api/v1/access/session.
type AccessState struct {
	User            *Identity        `json:"user"`
	IsAuthenticated bool             `json:"is_authenticated"`
	IsLoading       bool             `json:"is_loading"`
	Role            string           `json:"role"`
	RoleLevel       int              `json:"role_level"`
	Permissions     []Permission     `json:"permissions"`
	Onboarded       bool             `json:"onboarding_completed"`
	Tier            SubscriptionTier `json:"subscription_tier"`
}

// OwnershipRequest is the body of POST /api/v1/access/ownership.
type OwnershipRequest struct {
	ResourceType      string   `json:"resource_type" validate:"required,oneof=pages resources leads teams domains"`
	ResourceIDs       []string `json:"resource_ids" validate:"required,min=1,max=200,dive,required,max=128"`
	AllowTeamAccess   bool     `json:"allow_team_access"`
	RequiredTeamRoles []string `json:"required_team_roles" validate:"omitempty,dive,oneof=owner admin member"`
}

// TeamAccessRequest is the body of POST /api/v1/access/team.
type TeamAccessRequest struct {
	TeamID            string   `json:"team_id" validate:"required,max=128"`
	RequiredTeamRoles []string `json:"required_team_roles" validate:"omitempty,dive,oneof=owner admin member"`
}

// OwnershipResponse maps each requested id to its decision.
type OwnershipResponse struct {
	ResourceType string          `json:"resource_type"`
	Results      map[string]bool `json:"results"`
}

// AccessCheckRequest is the body of POST /api/v1/access/check. Exactly one of
// Preset and Config is set. Config uses the same keys as a route table entry.
type AccessCheckRequest struct {
	Preset     string                 `json:"preset" validate:"omitempty,max=64"`
	Config     map[string]interface{} `json:"config"`
	ResourceID string                 `json:"resource_id" validate:"omitempty,max=128"`
}

// AccessCheckResponse is a check result with its user-facing outcome.
type AccessCheckResponse struct {
	SecurityCheckResult
	Message    string `json:"message,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Uptime     float64           `json:"uptime_seconds"`
	Clients    int               `json:"stream_clients"`
}

// DevSignInRequest is the body of POST /api/v1/dev/signin.
type DevSignInRequest struct {
	UserID        string `json:"user_id" validate:"required,max=128"`
	Email         string `json:"email" validate:"omitempty,email"`
	EmailVerified bool   `json:"email_verified"`
}
