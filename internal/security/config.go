// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
	"github.com/tomtom215/gatehouse/internal/validation"
)

// ErrInvalidConfig wraps every construction failure.
var ErrInvalidConfig = errors.New("invalid security config")

// DefaultIDParam is the route parameter holding the resource id.
const DefaultIDParam = "id"

// OwnershipSpec describes the ownership requirement of a surface.
type OwnershipSpec struct {
	ResourceType      models.ResourceType `mapstructure:"resource_type" json:"resource_type" validate:"required,resource_type"`
	IDParam           string              `mapstructure:"id_param" json:"id_param,omitempty" validate:"omitempty,max=64"`
	AllowTeamAccess   bool                `mapstructure:"allow_team_access" json:"allow_team_access"`
	RequiredTeamRoles []models.TeamRole   `mapstructure:"required_team_roles" json:"required_team_roles,omitempty" validate:"omitempty,dive,team_role"`
}

// Config is the access requirement of one protected surface. Obtain one
// through NewConfig, DecodeConfig or Preset; the zero value is public.
type Config struct {
	Name string `mapstructure:"name" json:"name,omitempty" validate:"omitempty,max=64"`

	RequireAuth          bool `mapstructure:"require_auth" json:"require_auth"`
	RequireEmailVerified bool `mapstructure:"require_email_verified" json:"require_email_verified"`
	RequireOnboarding    bool `mapstructure:"require_onboarding" json:"require_onboarding"`

	RequiredPermissions      []models.Permission      `mapstructure:"required_permissions" json:"required_permissions,omitempty" validate:"omitempty,dive,permission"`
	RequiredAnyPermission    []models.Permission      `mapstructure:"required_any_permission" json:"required_any_permission,omitempty" validate:"omitempty,dive,permission"`
	MinimumRoleLevel         *models.Role             `mapstructure:"minimum_role_level" json:"minimum_role_level,omitempty"`
	AllowedRoles             []models.Role            `mapstructure:"allowed_roles" json:"allowed_roles,omitempty"`
	RequiredSubscriptionTier *models.SubscriptionTier `mapstructure:"required_subscription_tier" json:"required_subscription_tier,omitempty"`

	Ownership *OwnershipSpec `mapstructure:"ownership" json:"ownership,omitempty"`

	RedirectOnFail  string `mapstructure:"redirect_on_fail" json:"redirect_on_fail,omitempty" validate:"omitempty,route_path"`
	ShowToastOnFail bool   `mapstructure:"show_toast_on_fail" json:"show_toast_on_fail"`

	// Sensitive surfaces also record successful checks in the audit log.
	Sensitive bool `mapstructure:"sensitive" json:"sensitive"`
}

// Option configures NewConfig.
type Option func(*Config)

// RequireAuth requires a signed-in user.
func RequireAuth() Option {
	return func(c *Config) { c.RequireAuth = true }
}

// RequireEmailVerified requires a confirmed email address.
func RequireEmailVerified() Option {
	return func(c *Config) { c.RequireEmailVerified = true }
}

// RequireOnboarding requires completed onboarding.
func RequireOnboarding() Option {
	return func(c *Config) { c.RequireOnboarding = true }
}

// WithPermissions requires every listed permission.
func WithPermissions(perms ...models.Permission) Option {
	return func(c *Config) { c.RequiredPermissions = append(c.RequiredPermissions, perms...) }
}

// WithAnyPermission requires at least one listed permission.
func WithAnyPermission(perms ...models.Permission) Option {
	return func(c *Config) { c.RequiredAnyPermission = append(c.RequiredAnyPermission, perms...) }
}

// WithMinimumRole requires a role at or above r.
func WithMinimumRole(r models.Role) Option {
	return func(c *Config) { c.MinimumRoleLevel = &r }
}

// WithAllowedRoles restricts access to the listed roles.
func WithAllowedRoles(roles ...models.Role) Option {
	return func(c *Config) { c.AllowedRoles = append(c.AllowedRoles, roles...) }
}

// WithSubscriptionTier requires a plan at or above t.
func WithSubscriptionTier(t models.SubscriptionTier) Option {
	return func(c *Config) { c.RequiredSubscriptionTier = &t }
}

// WithOwnership requires ownership of the resource named by the route
// parameter idParam. An empty idParam uses DefaultIDParam.
func WithOwnership(rt models.ResourceType, idParam string, allowTeamAccess bool, teamRoles ...models.TeamRole) Option {
	return func(c *Config) {
		c.Ownership = &OwnershipSpec{
			ResourceType:      rt,
			IDParam:           idParam,
			AllowTeamAccess:   allowTeamAccess,
			RequiredTeamRoles: teamRoles,
		}
	}
}

// RedirectOnFail sets the redirect used for authorization denials.
func RedirectOnFail(path string) Option {
	return func(c *Config) { c.RedirectOnFail = path }
}

// ShowToast controls the flash message on denial.
func ShowToast(show bool) Option {
	return func(c *Config) { c.ShowToastOnFail = show }
}

// Sensitive records successful checks in the audit log.
func Sensitive() Option {
	return func(c *Config) { c.Sensitive = true }
}

// Named labels the config in logs, metrics and audit events.
func Named(name string) Option {
	return func(c *Config) { c.Name = name }
}

// NewConfig builds and validates a Config. Toasts are shown by default.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{ShowToastOnFail: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c.normalize()
}

// MustConfig is NewConfig for static tables. It panics on invalid options.
func MustConfig(opts ...Option) Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// normalize validates c and returns a copy that shares no slices with the
// input. Requirements that need a user imply RequireAuth.
func (c Config) normalize() (Config, error) {
	c = c.Clone()

	if c.RequireEmailVerified || c.RequireOnboarding || c.Ownership != nil || c.hasAuthzCriteria() {
		c.RequireAuth = true
	}
	if c.Ownership != nil && c.Ownership.IDParam == "" {
		c.Ownership.IDParam = DefaultIDParam
	}

	if err := validation.ValidateStruct(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if c.MinimumRoleLevel != nil && !c.MinimumRoleLevel.Valid() {
		return Config{}, fmt.Errorf("%w: minimum_role_level out of range", ErrInvalidConfig)
	}
	for _, r := range c.AllowedRoles {
		if !r.Valid() {
			return Config{}, fmt.Errorf("%w: allowed_roles contains an undeclared role", ErrInvalidConfig)
		}
	}
	if t := c.RequiredSubscriptionTier; t != nil && (*t < models.TierFree || *t > models.TierEnterprise) {
		return Config{}, fmt.Errorf("%w: required_subscription_tier out of range", ErrInvalidConfig)
	}

	return c, nil
}

func (c *Config) hasAuthzCriteria() bool {
	return len(c.RequiredPermissions) > 0 ||
		len(c.RequiredAnyPermission) > 0 ||
		c.MinimumRoleLevel != nil ||
		len(c.AllowedRoles) > 0 ||
		c.RequiredSubscriptionTier != nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.RequiredPermissions = slices.Clone(c.RequiredPermissions)
	c.RequiredAnyPermission = slices.Clone(c.RequiredAnyPermission)
	c.AllowedRoles = slices.Clone(c.AllowedRoles)
	if c.MinimumRoleLevel != nil {
		r := *c.MinimumRoleLevel
		c.MinimumRoleLevel = &r
	}
	if c.RequiredSubscriptionTier != nil {
		t := *c.RequiredSubscriptionTier
		c.RequiredSubscriptionTier = &t
	}
	if c.Ownership != nil {
		o := *c.Ownership
		o.RequiredTeamRoles = slices.Clone(o.RequiredTeamRoles)
		c.Ownership = &o
	}
	return c
}

// AuthOptions projects the authentication requirements.
func (c *Config) AuthOptions() auth.AuthOptions {
	return auth.AuthOptions{
		RequireAuth:               c.RequireAuth,
		RequireEmailVerified:      c.RequireEmailVerified,
		RequireOnboardingComplete: c.RequireOnboarding,
	}
}

// AuthzOptions projects the authorization requirements.
func (c *Config) AuthzOptions() authz.Options {
	return authz.Options{
		RequiredPermissions:      c.RequiredPermissions,
		RequiredAnyPermission:    c.RequiredAnyPermission,
		MinimumRole:              c.MinimumRoleLevel,
		AllowedRoles:             c.AllowedRoles,
		RequiredSubscriptionTier: c.RequiredSubscriptionTier,
	}
}

// OwnershipOptions projects the ownership requirement for resourceID.
func (c *Config) OwnershipOptions(resourceID string) ownership.Options {
	if c.Ownership == nil {
		return ownership.Options{ResourceID: resourceID}
	}
	return ownership.Options{
		ResourceType:      c.Ownership.ResourceType,
		ResourceID:        resourceID,
		AllowTeamAccess:   c.Ownership.AllowTeamAccess,
		RequiredTeamRoles: c.Ownership.RequiredTeamRoles,
	}
}

// Label returns Name or "custom".
func (c *Config) Label() string {
	if c.Name == "" {
		return "custom"
	}
	return c.Name
}
