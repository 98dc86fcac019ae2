// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/gatehouse/internal/logging"
)

// DefaultTopic is the subject audit events are published to.
const DefaultTopic = "gatehouse.audit.events"

// PublisherStore publishes each event as a JSON message. It is write-only:
// reads return ErrNotSupported and Delete is a no-op.
type PublisherStore struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[interface{}]
}

// NewPublisherStore wraps a Watermill publisher. An empty topic uses
// DefaultTopic.
func NewPublisherStore(publisher message.Publisher, topic string) *PublisherStore {
	if topic == "" {
		topic = DefaultTopic
	}
	return &PublisherStore{
		publisher: publisher,
		topic:     topic,
		breaker: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
			Name:        "audit-publisher",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("Audit publisher circuit breaker state changed")
			},
		}),
	}
}

// NATSPublisherConfig configures NewNATSPublisher.
type NATSPublisherConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NewNATSPublisher connects a core NATS Watermill publisher. JetStream is
// not used; the audit subject is fire-and-forget.
func NewNATSPublisher(cfg NATSPublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("gatehouse-audit"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill nats publisher: %w", err)
	}
	return pub, nil
}

// NewInProcessPubSub returns an in-process Watermill pub/sub. It is used in
// development and by the auth state stream in tests.
func NewInProcessPubSub(buffer int64) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, watermill.NewSlogLogger(logging.NewSlogLogger()))
}

// Save publishes the event.
func (s *PublisherStore) Save(_ context.Context, event *SecurityEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("decision", string(event.Decision))
	msg.Metadata.Set("action", event.Action)
	if event.Reason != "" {
		msg.Metadata.Set("reason", string(event.Reason))
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.publisher.Publish(s.topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Get is not supported.
func (s *PublisherStore) Get(context.Context, string) (*SecurityEvent, error) {
	return nil, ErrNotSupported
}

// Query is not supported.
func (s *PublisherStore) Query(context.Context, QueryFilter) ([]SecurityEvent, error) {
	return nil, ErrNotSupported
}

// Count is not supported.
func (s *PublisherStore) Count(context.Context, QueryFilter) (int64, error) {
	return 0, ErrNotSupported
}

// Delete is a no-op; retention belongs to the consumer.
func (s *PublisherStore) Delete(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Close closes the underlying publisher.
func (s *PublisherStore) Close() error {
	return s.publisher.Close()
}

// DecodeMessage unmarshals a message published by PublisherStore.
func DecodeMessage(msg *message.Message) (*SecurityEvent, error) {
	var ev SecurityEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode audit message %s: %w", msg.UUID, err)
	}
	return &ev, nil
}
