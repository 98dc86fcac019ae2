// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"errors"
	"time"
)

// MultiStore writes to every store and reads from the first.
type MultiStore struct {
	stores []Store
}

// NewMultiStore creates a MultiStore. Nil stores are skipped.
func NewMultiStore(stores ...Store) *MultiStore {
	m := &MultiStore{}
	for _, s := range stores {
		if s != nil {
			m.stores = append(m.stores, s)
		}
	}
	return m
}

// Save writes to every store. A failing store does not prevent writes to the
// others; the failures are joined.
func (m *MultiStore) Save(ctx context.Context, event *SecurityEvent) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Save(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get reads from the primary store.
func (m *MultiStore) Get(ctx context.Context, id string) (*SecurityEvent, error) {
	if len(m.stores) == 0 {
		return nil, ErrNotSupported
	}
	return m.stores[0].Get(ctx, id)
}

// Query reads from the primary store.
func (m *MultiStore) Query(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	if len(m.stores) == 0 {
		return nil, ErrNotSupported
	}
	return m.stores[0].Query(ctx, filter)
}

// Count reads from the primary store.
func (m *MultiStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	if len(m.stores) == 0 {
		return 0, ErrNotSupported
	}
	return m.stores[0].Count(ctx, filter)
}

// GetStats summarizes the primary store.
func (m *MultiStore) GetStats(ctx context.Context) (*Stats, error) {
	if len(m.stores) == 0 {
		return nil, ErrNotSupported
	}
	ss, ok := m.stores[0].(StatsStore)
	if !ok {
		return nil, ErrNotSupported
	}
	return ss.GetStats(ctx)
}

// Delete applies retention to every store and reports the primary's count.
func (m *MultiStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	var (
		primary int64
		errs    []error
	)
	for i, s := range m.stores {
		n, err := s.Delete(ctx, olderThan)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if i == 0 {
			primary = n
		}
	}
	return primary, errors.Join(errs...)
}

// Len returns the number of stores.
func (m *MultiStore) Len() int {
	return len(m.stores)
}
