// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package websocket

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Snapshot computes the current auth state for one client. It runs with the
// context captured at upgrade time, so it sees the same credentials as the
// original request.
type Snapshot func(ctx context.Context) (interface{}, error)

var clientIDCounter atomic.Uint64

// Client is one auth state stream connection.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	refresh  chan struct{}
	snapshot Snapshot

	ctx    context.Context
	cancel context.CancelFunc

	// last is the encoded state most recently queued. Only the refresh
	// goroutine touches it after Start.
	last []byte
}

// NewClient creates a Client. ctx should carry the request credentials; it
// is detached from request cancellation.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, snapshot Snapshot) *Client {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, 16),
		refresh:  make(chan struct{}, 1),
		snapshot: snapshot,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the client's connection-order identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start registers the client, queues the initial state and starts the pumps.
func (c *Client) Start() {
	c.hub.Register(c)
	c.push()
	go c.writePump()
	go c.readPump()
	go c.refreshPump()
}

// trigger asks the client to re-evaluate. Pending triggers coalesce.
func (c *Client) trigger() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// close stops the client. writePump sends the close frame and releases the
// connection.
func (c *Client) close() {
	c.cancel()
}

// push evaluates the state and queues it when it differs from the last one.
func (c *Client) push() {
	state, err := c.snapshot(c.ctx)
	if err != nil {
		if c.ctx.Err() == nil {
			metrics.RecordStreamError("snapshot")
			logging.Warn().Err(err).Uint64("client_id", c.id).Msg("Auth stream snapshot failed")
		}
		return
	}

	msg := Message{Type: MessageTypeAuthState, Data: state}
	encoded, err := json.Marshal(msg)
	if err != nil {
		metrics.RecordStreamError("marshal")
		return
	}
	if bytes.Equal(encoded, c.last) {
		return
	}
	c.last = encoded
	c.enqueue(msg)
}

func (c *Client) enqueue(msg Message) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		metrics.RecordStreamError("send_buffer_full")
		logging.Warn().Uint64("client_id", c.id).Msg("Auth stream client too slow, disconnecting")
		c.hub.Unregister(c)
	}
}

func (c *Client) refreshPump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.refresh:
			c.push()
		}
	}
}

// readPump consumes client messages until the connection fails.
func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				metrics.RecordStreamError("read")
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Unexpected auth stream close")
			}
			return
		}
		if msg.Type == MessageTypePing {
			c.enqueue(Message{Type: MessageTypePong})
		}
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				metrics.RecordStreamError("write")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
