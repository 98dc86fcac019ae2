// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package authz

import (
	"github.com/tomtom215/gatehouse/internal/models"
)

// roleAdditions lists what each role adds on top of the role below it.
// Edit only this table; the matrix is derived from it.
var roleAdditions = map[models.Role][]models.Permission{
	models.RoleGuest: {
		models.PermPagesView,
		models.PermResourcesView,
	},
	models.RoleUser: {
		models.PermPagesCreate,
		models.PermPagesEditOwn,
		models.PermPagesDeleteOwn,
		models.PermPagesPublish,
		models.PermResourcesCreate,
		models.PermResourcesEditOwn,
		models.PermResourcesDeleteOwn,
		models.PermLeadsViewOwn,
		models.PermLeadsExport,
		models.PermTeamsView,
		models.PermTeamsCreate,
		models.PermTeamsInvite,
		models.PermAnalyticsViewOwn,
		models.PermBillingView,
		models.PermBillingManage,
		models.PermSettingsView,
		models.PermSettingsEdit,
	},
	models.RoleModerator: {
		models.PermPagesEditAny,
		models.PermResourcesEditAny,
		models.PermLeadsViewAny,
		models.PermAnalyticsViewAny,
		models.PermUsersView,
		models.PermAuditView,
	},
	models.RoleAdmin: {
		models.PermPagesDeleteAny,
		models.PermResourcesDeleteAny,
		models.PermLeadsDelete,
		models.PermTeamsManage,
		models.PermTeamsDelete,
		models.PermUsersManage,
		models.PermAdminAccess,
		models.PermAdminSettings,
	},
	models.RoleSuperAdmin: {
		models.PermissionAll,
	},
}

type permissionSet map[models.Permission]struct{}

// matrix is built once at init and never mutated.
var matrix = buildMatrix()

func buildMatrix() map[models.Role]permissionSet {
	out := make(map[models.Role]permissionSet, len(models.AllRoles))
	prev := permissionSet{}
	for _, role := range models.AllRoles {
		set := make(permissionSet, len(prev)+len(roleAdditions[role]))
		for p := range prev {
			set[p] = struct{}{}
		}
		for _, p := range roleAdditions[role] {
			set[p] = struct{}{}
		}
		out[role] = set
		prev = set
	}
	return out
}

// GetPermissionsForRole returns a copy of the role's permission set in
// declaration order. The sentinel, when held, comes first. Invalid roles get
// the guest set.
func GetPermissionsForRole(role models.Role) []models.Permission {
	if !role.Valid() {
		role = models.RoleGuest
	}
	set := matrix[role]
	out := make([]models.Permission, 0, len(set))
	if _, ok := set[models.PermissionAll]; ok {
		out = append(out, models.PermissionAll)
	}
	for _, p := range models.AllPermissions {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RoleHasPermission reports whether role holds perm, either exactly or via
// the sentinel. Undeclared tokens are never granted.
func RoleHasPermission(role models.Role, perm models.Permission) bool {
	if !perm.IsKnown() {
		return false
	}
	if !role.Valid() {
		role = models.RoleGuest
	}
	set := matrix[role]
	if _, ok := set[models.PermissionAll]; ok {
		return true
	}
	_, ok := set[perm]
	return ok
}

// policyLines returns the Casbin p and g rules derived from roleAdditions.
func policyLines() (policies, grouping [][]string) {
	for i, role := range models.AllRoles {
		for _, p := range roleAdditions[role] {
			policies = append(policies, []string{role.String(), string(p)})
		}
		if i > 0 {
			grouping = append(grouping, []string{role.String(), models.AllRoles[i-1].String()})
		}
	}
	return policies, grouping
}
