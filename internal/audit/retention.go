// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"time"

	"github.com/tomtom215/gatehouse/internal/logging"
)

// RetentionService periodically deletes events older than the retention
// period. It implements suture.Service.
type RetentionService struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionService creates a RetentionService. A non-positive
// retentionDays keeps events forever and Serve just waits for shutdown.
func NewRetentionService(store Store, retentionDays int, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionService{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve runs cleanup on every tick until ctx is canceled.
func (s *RetentionService) Serve(ctx context.Context) error {
	if s.store == nil || s.retention <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass and returns the number of events
// deleted.
func (s *RetentionService) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	count, err := s.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup error")
		return 0
	}
	if count > 0 {
		AuditRetentionDeletedTotal.Add(float64(count))
		logging.Info().Int64("count", count).Time("cutoff", cutoff).Msg("Cleaned up old audit events")
	}
	return count
}

// String implements fmt.Stringer for suture logging.
func (s *RetentionService) String() string {
	return "audit-retention"
}
