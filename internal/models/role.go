// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package models

import "strings"

// Role is a coarse-grained privilege tier. The underlying integer is the
// role level used for threshold comparisons.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleModerator
	RoleAdmin
	RoleSuperAdmin
)

// AllRoles lists every role in ascending level order.
var AllRoles = []Role{RoleGuest, RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin}

var roleNames = [...]string{"guest", "user", "moderator", "admin", "super_admin"}

// String returns the canonical role name.
func (r Role) String() string {
	if !r.Valid() {
		return roleNames[RoleGuest]
	}
	return roleNames[r]
}

// Level returns the total-order integer for the role.
func (r Role) Level() int {
	if !r.Valid() {
		return int(RoleGuest)
	}
	return int(r)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleGuest && r <= RoleSuperAdmin
}

// AtLeast reports whether r is at or above min.
func (r Role) AtLeast(minRole Role) bool {
	return r.Level() >= minRole.Level()
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to guest.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// ParseRole maps a stored role name to a Role. Unknown or empty names map to
// RoleGuest.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for i, name := range roleNames {
		if name == s {
			return Role(i)
		}
	}
	if s == "superadmin" {
		return RoleSuperAdmin
	}
	return RoleGuest
}

// IsValidRoleName reports whether s names a declared role exactly.
func IsValidRoleName(s string) bool {
	for _, name := range roleNames {
		if name == s {
			return true
		}
	}
	return false
}

// TeamRole is a member's role within a single team.
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

// Valid reports whether t is a declared team role.
func (t TeamRole) Valid() bool {
	switch t {
	case TeamRoleOwner, TeamRoleAdmin, TeamRoleMember:
		return true
	}
	return false
}

// ParseTeamRole maps a stored team role. Unknown values map to member.
func ParseTeamRole(s string) TeamRole {
	t := TeamRole(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return TeamRoleMember
}

// SubscriptionTier is a billing plan. Tiers are totally ordered.
type SubscriptionTier int

const (
	TierFree SubscriptionTier = iota
	TierStarter
	TierPro
	TierEnterprise
)

var tierNames = [...]string{"free", "starter", "pro", "enterprise"}

// String returns the canonical tier name.
func (t SubscriptionTier) String() string {
	if t < TierFree || t > TierEnterprise {
		return tierNames[TierFree]
	}
	return tierNames[t]
}

// AtLeast reports whether t is at or above minTier.
func (t SubscriptionTier) AtLeast(minTier SubscriptionTier) bool {
	return t >= minTier
}

// MarshalText implements encoding.TextMarshaler.
func (t SubscriptionTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to free.
func (t *SubscriptionTier) UnmarshalText(text []byte) error {
	*t = ParseSubscriptionTier(string(text))
	return nil
}

// ParseSubscriptionTier maps a plan name. Unknown or empty names map to free.
func ParseSubscriptionTier(s string) SubscriptionTier {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == s {
			return SubscriptionTier(i)
		}
	}
	return TierFree
}

// IsValidTierName reports whether s names a declared tier exactly.
func IsValidTierName(s string) bool {
	for _, name := range tierNames {
		if name == s {
			return true
		}
	}
	return false
}
