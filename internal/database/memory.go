// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/gatehouse/internal/models"
)

// Memory is an in-process platform store for development mode and tests.
// Returned values are copies.
type Memory struct {
	mu          sync.RWMutex
	profiles    map[string]models.Profile
	memberships map[string]map[string]models.TeamRole // user -> team -> role
	owners      map[models.ResourceType]map[string]models.ResourceOwner
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles:    make(map[string]models.Profile),
		memberships: make(map[string]map[string]models.TeamRole),
		owners:      make(map[models.ResourceType]map[string]models.ResourceOwner),
	}
}

// PutProfile inserts or replaces a profile.
func (m *Memory) PutProfile(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

// AddMembership inserts or replaces a team membership.
func (m *Memory) AddMembership(tm models.TeamMembership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	teams, ok := m.memberships[tm.UserID]
	if !ok {
		teams = make(map[string]models.TeamRole)
		m.memberships[tm.UserID] = teams
	}
	teams[tm.TeamID] = tm.Role
}

// RemoveMembership deletes a team membership.
func (m *Memory) RemoveMembership(userID, teamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.memberships[userID], teamID)
}

// PutResource inserts or replaces a resource owner row.
func (m *Memory) PutResource(o models.ResourceOwner) error {
	if !o.ResourceType.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownResourceType, o.ResourceType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.owners[o.ResourceType]
	if !ok {
		byID = make(map[string]models.ResourceOwner)
		m.owners[o.ResourceType] = byID
	}
	byID[o.ResourceID] = o
	return nil
}

// GetProfile returns the profile for userID, or (nil, nil) when none exists.
func (m *Memory) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetMemberships returns the memberships of userID ordered by team id.
func (m *Memory) GetMemberships(_ context.Context, userID string) ([]models.TeamMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	teams := m.memberships[userID]
	out := make([]models.TeamMembership, 0, len(teams))
	for teamID, role := range teams {
		out = append(out, models.TeamMembership{TeamID: teamID, UserID: userID, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

// GetResourceOwner returns the owner row, or (nil, nil) when absent.
func (m *Memory) GetResourceOwner(_ context.Context, resourceType models.ResourceType, resourceID string) (*models.ResourceOwner, error) {
	if !resourceType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResourceType, resourceType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.owners[resourceType][resourceID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}
