// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package authz implements the authorization layer: it maps an authenticated
// user to a role, expands the role to a permission set, and checks required
// permissions, minimum role level, role allow-lists and subscription tier.
//
// # Role/Permission Matrix
//
// The matrix in permissions.go is the single source of truth. Each role's
// entry is the previous role's entry plus its own additions, so the matrix is
// monotonic by construction:
//
//	guest < user < moderator < admin < super_admin
//
// super_admin additionally holds the "*" sentinel, which grants every
// declared permission. Tokens outside the declared set are never granted,
// not even to "*".
//
// # Casbin
//
// The same matrix is loaded into a Casbin SyncedEnforcer at startup using a
// role-inheritance model:
//
//	[request_definition]
//	r = sub, act
//
//	[policy_definition]
//	p = sub, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && (p.act == "*" || r.act == p.act)
//
// Policy lines hold only each role's additions; g lines chain every role to
// the one below it. Tests assert the enforcer and the static table agree for
// every (role, permission) pair.
//
// # Fail-Closed Role Resolution
//
// GetUserRole never returns an error:
//
//   - no user id: guest
//   - profile lookup error or missing profile: guest
//   - profile found with an empty role column: user
//   - profile found with a role: that role (unknown names parse to guest)
//
// # Usage
//
//	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
//	if err != nil {
//	    return err
//	}
//	defer enforcer.Close()
//
//	authorizer := authz.NewAuthorizer(enforcer, profiles, authz.DefaultAuthorizerConfig())
//	defer authorizer.Close()
//
//	res := authorizer.CheckAuthorization(ctx, userID, authz.Options{
//	    RequiredPermissions: []models.Permission{models.PermPagesDeleteAny},
//	})
package authz
