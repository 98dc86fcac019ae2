// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"sort"

	"github.com/tomtom215/gatehouse/internal/models"
)

// Preset names.
const (
	PresetPublic        = "public"
	PresetAuthenticated = "authenticated"
	PresetVerified      = "verified"
	PresetDashboard     = "dashboard"
	PresetModerator     = "moderator"
	PresetAdmin         = "admin"
	PresetSuperAdmin    = "super_admin"
	PresetPageEditor    = "page_editor"
	PresetBilling       = "billing"
)

// presets is built once at init and never handed out directly.
var presets = map[string]Config{
	PresetPublic: MustConfig(Named(PresetPublic)),

	PresetAuthenticated: MustConfig(Named(PresetAuthenticated), RequireAuth()),

	PresetVerified: MustConfig(Named(PresetVerified), RequireAuth(), RequireEmailVerified()),

	PresetDashboard: MustConfig(Named(PresetDashboard), RequireAuth(), RequireOnboarding()),

	PresetModerator: MustConfig(
		Named(PresetModerator),
		RequireAuth(),
		WithMinimumRole(models.RoleModerator),
		RedirectOnFail("/dashboard"),
	),

	PresetAdmin: MustConfig(
		Named(PresetAdmin),
		RequireAuth(),
		WithMinimumRole(models.RoleAdmin),
		RedirectOnFail("/dashboard"),
		Sensitive(),
	),

	PresetSuperAdmin: MustConfig(
		Named(PresetSuperAdmin),
		RequireAuth(),
		WithMinimumRole(models.RoleSuperAdmin),
		RedirectOnFail("/dashboard"),
		Sensitive(),
	),

	PresetPageEditor: MustConfig(
		Named(PresetPageEditor),
		RequireAuth(),
		RequireOnboarding(),
		WithPermissions(models.PermPagesEditOwn),
		WithOwnership(models.ResourcePages, DefaultIDParam, true, models.TeamRoleOwner, models.TeamRoleAdmin),
		RedirectOnFail("/dashboard/pages"),
	),

	PresetBilling: MustConfig(
		Named(PresetBilling),
		RequireAuth(),
		RequireOnboarding(),
		WithPermissions(models.PermBillingView),
		RedirectOnFail("/dashboard"),
	),
}

// Preset returns a copy of the named preset.
func Preset(name string) (Config, bool) {
	c, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	return c.Clone(), true
}

// MustPreset returns the named preset and panics if it does not exist. Use
// it only while building routes.
func MustPreset(name string) Config {
	c, ok := Preset(name)
	if !ok {
		panic("security: unknown preset " + name)
	}
	return c
}

// Presets returns copies of every preset keyed by name.
func Presets() map[string]Config {
	out := make(map[string]Config, len(presets))
	for name, c := range presets {
		out[name] = c.Clone()
	}
	return out
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
