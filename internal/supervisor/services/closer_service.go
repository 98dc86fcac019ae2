// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gatehouse/internal/logging"
)

// CloserService holds resources open for the life of the tree and closes
// them, in order, when the tree stops. The audit logger goes here so its
// buffer drains after the HTTP server has stopped accepting requests.
//
// Closing happens once. Serve returns suture.ErrDoNotRestart afterwards.
type CloserService struct {
	name    string
	closers []io.Closer
	once    sync.Once
	err     error
	closed  chan struct{}
}

// NewCloserService creates a service that closes closers on shutdown.
func NewCloserService(name string, closers ...io.Closer) *CloserService {
	return &CloserService{
		name:    name,
		closers: closers,
		closed:  make(chan struct{}),
	}
}

// Serve blocks until ctx is done, then closes every resource.
func (s *CloserService) Serve(ctx context.Context) error {
	select {
	case <-s.closed:
		return suture.ErrDoNotRestart
	default:
	}

	<-ctx.Done()
	s.once.Do(func() {
		var errs []error
		for _, c := range s.closers {
			if c == nil {
				continue
			}
			if err := c.Close(); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("Failed to close resource")
				errs = append(errs, err)
			}
		}
		s.err = errors.Join(errs...)
		close(s.closed)
	})
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

// Closed is closed once every resource has been closed.
func (s *CloserService) Closed() <-chan struct{} {
	return s.closed
}

// String implements fmt.Stringer for suture's event log.
func (s *CloserService) String() string {
	return s.name
}

// CloseFunc adapts a function to io.Closer.
type CloseFunc func() error

// Close calls f.
func (f CloseFunc) Close() error {
	return f()
}
