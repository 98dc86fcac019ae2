// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

// ResourceType names a kind of owned resource.
type ResourceType string

const (
	ResourcePages     ResourceType = "pages"
	ResourceResources ResourceType = "resources"
	ResourceLeads     ResourceType = "leads"
	ResourceTeams     ResourceType = "teams"
	ResourceDomains   ResourceType = "domains"
)

// ResourceConfig describes where a resource type's owner columns live.
// OwnerTeamColumn is empty for types that cannot be team owned.
type ResourceConfig struct {
	Table            string
	IDColumn         string
	OwnerUserColumn  string
	OwnerTeamColumn  string
	SupportsTeamRead bool
}

var resourceConfigs = map[ResourceType]ResourceConfig{
	ResourcePages: {
		Table: "landing_pages", IDColumn: "id",
		OwnerUserColumn: "user_id", OwnerTeamColumn: "team_id", SupportsTeamRead: true,
	},
	ResourceResources: {
		Table: "resources", IDColumn: "id",
		OwnerUserColumn: "user_id", OwnerTeamColumn: "team_id", SupportsTeamRead: true,
	},
	ResourceLeads: {
		Table: "leads", IDColumn: "id",
		OwnerUserColumn: "owner_id", OwnerTeamColumn: "team_id", SupportsTeamRead: true,
	},
	// A team's owner column is the creator; team access resolves against the
	// team's own id.
	ResourceTeams: {
		Table: "teams", IDColumn: "id",
		OwnerUserColumn: "owner_id", OwnerTeamColumn: "id", SupportsTeamRead: true,
	},
	ResourceDomains: {
		Table: "custom_domains", IDColumn: "id",
		OwnerUserColumn: "user_id",
	},
}

// AllResourceTypes lists the declared resource types.
var AllResourceTypes = []ResourceType{
	ResourcePages, ResourceResources, ResourceLeads, ResourceTeams, ResourceDomains,
}

// Config returns the read-only config for t. ok is false for unknown types.
func (t ResourceType) Config() (ResourceConfig, bool) {
	cfg, ok := resourceConfigs[t]
	return cfg, ok
}

// Valid reports whether t is a declared resource type.
func (t ResourceType) Valid() bool {
	_, ok := resourceConfigs[t]
	return ok
}
