// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package models defines the value types shared by every access-control layer.

Nothing in this package performs I/O. Types are either enumerations with a
closed set of values (Role, Permission, TeamRole, SubscriptionTier,
ResourceType, DeniedReason, Layer) or plain records handed between layers
(Identity, Session, Profile, TeamMembership, ResourceOwner).

Key Components:

  - SecurityCheckResult: uniform pass/fail value returned by every layer
  - Role: privilege tier with a strict total order (guest < user < moderator < admin < super_admin)
  - Permission: closed set of resource.action tokens plus the "*" sentinel
  - ResourceType: read-only table describing where each resource's owner lives

Result Construction:

	res := models.Deny(models.LayerAuthorization, models.ReasonInsufficientPermissions,
	    "missing pages.delete_any")
	if !res.Allowed {
	    // branch on res.DeniedReason
	}

Fail-Closed Parsing:

ParseRole, ParseTeamRole and ParseSubscriptionTier never return an error.
Unknown input maps to the least privileged value so that a malformed row can
only narrow access.

API Envelope:

APIResponse, APIError and Metadata form the JSON envelope used by internal/api.
*/
package models
