// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types.
const (
	MessageTypeAuthState = "auth_state"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is the envelope written to every stream.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StateSource is satisfied by auth.IdentityProvider.
type StateSource interface {
	OnAuthStateChange(fn func(auth.AuthChange)) (unsubscribe func())
}

// Hub tracks connected clients and asks each of them to re-evaluate its
// auth state whenever the identity provider reports a transition.
//
// Sign-out events carry no session, so the hub cannot know whose state
// changed. Every client re-evaluates and only clients whose state differs
// from what they last sent write a message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	changes chan auth.AuthChange
}

// NewHub creates a Hub. Serve must run for changes to be delivered.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		changes: make(chan auth.AuthChange, 256),
	}
}

// Attach subscribes the hub to src and returns the disposer.
func (h *Hub) Attach(src StateSource) func() {
	return src.OnAuthStateChange(h.Notify)
}

// Notify queues an auth transition without blocking. Transitions beyond the
// queue are dropped; clients still converge on the next one.
func (h *Hub) Notify(change auth.AuthChange) {
	select {
	case h.changes <- change:
	default:
		metrics.RecordStreamError("queue_full")
		logging.Warn().Str("event", string(change.Event)).Msg("Auth stream queue full, dropping change")
	}
}

// Serve fans queued changes out to clients until ctx is canceled. It
// implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case change := <-h.changes:
			h.fanOut(change)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Register adds c to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.TrackStreamConnection(true)
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", total).Msg("Auth stream client connected")
}

// Unregister removes c and closes it. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		metrics.TrackStreamConnection(false)
		logging.Debug().Uint64("client_id", c.id).Int("total_clients", total).Msg("Auth stream client disconnected")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sortedClients returns a snapshot of clients in connection order.
func (h *Hub) sortedClients() []*Client {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) fanOut(change auth.AuthChange) {
	clients := h.sortedClients()
	for _, c := range clients {
		c.trigger()
	}
	logging.Debug().Str("event", string(change.Event)).Int("clients", len(clients)).Msg("Auth change fanned out")
}

// logGracefulShutdown closes every client and logs why. ctx.Err() is not
// logged as an error because cancellation is the normal shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clients := h.sortedClients()
	for _, c := range clients {
		h.Unregister(c)
	}

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
