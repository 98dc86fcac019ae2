// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"sync"

	"github.com/tomtom215/gatehouse/internal/logging"
)

// Listeners is an observer registry. Each registration returns a disposer
// that removes the listener exactly once.
type Listeners struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]func(AuthChange)
}

// NewListeners creates an empty registry.
func NewListeners() *Listeners {
	return &Listeners{fns: make(map[uint64]func(AuthChange))}
}

// Add registers fn and returns its disposer.
func (l *Listeners) Add(fn func(AuthChange)) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Notify calls every registered listener. Listeners run outside the lock so
// they may dispose themselves or register others. A panicking listener is
// logged and does not stop delivery to the rest.
func (l *Listeners) Notify(change AuthChange) {
	l.mu.Lock()
	snapshot := make([]func(AuthChange), 0, len(l.fns))
	for _, fn := range l.fns {
		snapshot = append(snapshot, fn)
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		deliver(fn, change)
	}
}

func deliver(fn func(AuthChange), change AuthChange) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Str("event", string(change.Event)).
				Msg("Auth state listener panicked")
		}
	}()
	fn(change)
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
