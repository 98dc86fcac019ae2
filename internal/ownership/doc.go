// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package ownership implements the ownership layer: it decides whether a user
// owns a resource instance directly or reaches it through team membership.
//
// Resolution for CheckOwnership:
//
//  1. Look up the resource's owning user and team.
//  2. Allow if the owning user is the caller.
//  3. If team access is allowed, allow when the owning team is one of the
//     caller's teams and, when team roles are required, the caller's role in
//     that team is one of them.
//  4. Otherwise deny with not_resource_owner.
//
// A resource that does not exist is denied exactly like one the caller does
// not own, so callers cannot probe for the existence of other tenants' ids.
//
// Lookups go straight to the stores on every call. There is no cache and no
// write path in this package.
package ownership
