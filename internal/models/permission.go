// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

import "strings"

// Permission is a resource.action capability token.
type Permission string

// PermissionAll is the sentinel held only by the top role.
const PermissionAll Permission = "*"

// Page permissions.
const (
	PermPagesView      Permission = "pages.view"
	PermPagesCreate    Permission = "pages.create"
	PermPagesEditOwn   Permission = "pages.edit_own"
	PermPagesEditAny   Permission = "pages.edit_any"
	PermPagesDeleteOwn Permission = "pages.delete_own"
	PermPagesDeleteAny Permission = "pages.delete_any"
	PermPagesPublish   Permission = "pages.publish"
)

// Resource (lead magnet asset) permissions.
const (
	PermResourcesView      Permission = "resources.view"
	PermResourcesCreate    Permission = "resources.create"
	PermResourcesEditOwn   Permission = "resources.edit_own"
	PermResourcesEditAny   Permission = "resources.edit_any"
	PermResourcesDeleteOwn Permission = "resources.delete_own"
	PermResourcesDeleteAny Permission = "resources.delete_any"
)

// Lead permissions.
const (
	PermLeadsViewOwn Permission = "leads.view_own"
	PermLeadsViewAny Permission = "leads.view_any"
	PermLeadsExport  Permission = "leads.export"
	PermLeadsDelete  Permission = "leads.delete"
)

// Team permissions.
const (
	PermTeamsView   Permission = "teams.view"
	PermTeamsCreate Permission = "teams.create"
	PermTeamsInvite Permission = "teams.invite"
	PermTeamsManage Permission = "teams.manage"
	PermTeamsDelete Permission = "teams.delete"
)

// Analytics, billing, user, admin, audit and settings permissions.
const (
	PermAnalyticsViewOwn Permission = "analytics.view_own"
	PermAnalyticsViewAny Permission = "analytics.view_any"

	PermBillingView   Permission = "billing.view"
	PermBillingManage Permission = "billing.manage"

	PermUsersView        Permission = "users.view"
	PermUsersManage      Permission = "users.manage"
	PermUsersImpersonate Permission = "users.impersonate"

	PermAdminAccess   Permission = "admin.access"
	PermAdminSettings Permission = "admin.settings"

	PermAuditView Permission = "audit.view"

	PermSettingsView Permission = "settings.view"
	PermSettingsEdit Permission = "settings.edit"
)

// AllPermissions is the closed set of declared tokens, excluding the sentinel.
var AllPermissions = []Permission{
	PermPagesView, PermPagesCreate, PermPagesEditOwn, PermPagesEditAny,
	PermPagesDeleteOwn, PermPagesDeleteAny, PermPagesPublish,
	PermResourcesView, PermResourcesCreate, PermResourcesEditOwn, PermResourcesEditAny,
	PermResourcesDeleteOwn, PermResourcesDeleteAny,
	PermLeadsViewOwn, PermLeadsViewAny, PermLeadsExport, PermLeadsDelete,
	PermTeamsView, PermTeamsCreate, PermTeamsInvite, PermTeamsManage, PermTeamsDelete,
	PermAnalyticsViewOwn, PermAnalyticsViewAny,
	PermBillingView, PermBillingManage,
	PermUsersView, PermUsersManage, PermUsersImpersonate,
	PermAdminAccess, PermAdminSettings,
	PermAuditView,
	PermSettingsView, PermSettingsEdit,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// IsKnown reports whether p is a declared token. The sentinel is not a
// declared token.
func (p Permission) IsKnown() bool {
	_, ok := knownPermissions[p]
	return ok
}

// Resource returns the part before the dot.
func (p Permission) Resource() string {
	res, _, _ := strings.Cut(string(p), ".")
	return res
}

// Action returns the part after the dot, or "" for malformed tokens.
func (p Permission) Action() string {
	_, act, _ := strings.Cut(string(p), ".")
	return act
}

// ParsePermissions converts raw strings, reporting the first unknown token.
func ParsePermissions(raw []string) ([]Permission, string, bool) {
	out := make([]Permission, 0, len(raw))
	for _, s := range raw {
		p := Permission(s)
		if !p.IsKnown() {
			return nil, s, false
		}
		out = append(out, p)
	}
	return out, "", true
}
