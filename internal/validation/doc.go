// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Access-control vocabulary is
// registered as custom tags:
//
//	permission     a declared permission token or "*"
//	role           a declared role name (guest, user, moderator, admin, super_admin)
//	tier           a declared subscription tier name
//	team_role      owner, admin or member
//	resource_type  a type from the resource-config table
//	route_path     an absolute, same-origin path ("/dashboard", not "//evil" or "https://...")
//
// Example usage:
//
//	type CheckRequest struct {
//	    Permissions []string `validate:"omitempty,dive,permission"`
//	    Redirect    string   `validate:"omitempty,route_path"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
package validation
