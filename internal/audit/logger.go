// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/gatehouse/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// LogLevel filters events by minimum severity.
	LogLevel Severity `json:"log_level"`

	// RetentionDays is how long to keep audit events.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// RateLimit caps accepted events per second. Zero disables the cap.
	RateLimit float64 `json:"rate_limit"`

	// RateBurst is the limiter burst size.
	RateBurst int `json:"rate_burst"`

	// WriteTimeout bounds each store write.
	WriteTimeout time.Duration `json:"write_timeout"`

	// LogToStdout also writes events to the process log.
	LogToStdout bool `json:"log_to_stdout"`

	// IncludeDebug includes debug-level events.
	IncludeDebug bool `json:"include_debug"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		LogLevel:        SeverityInfo,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
		RateLimit:       200,
		RateBurst:       400,
		WriteTimeout:    5 * time.Second,
	}
}

// Logger is the audit sink. A nil *Logger accepts and discards events.
type Logger struct {
	config    *Config
	store     Store
	limiter   *rate.Limiter
	eventChan chan *SecurityEvent
	mu        sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup
}

// NewLogger creates a new audit logger and starts its writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *SecurityEvent, config.BufferSize),
		stopChan:  make(chan struct{}),
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = int(config.RateLimit)
		}
		if burst <= 0 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event. Failures stay local.
func (l *Logger) writeEvent(event *SecurityEvent) {
	defer func() {
		if r := recover(); r != nil {
			RecordWriteError()
			logging.Error().Interface("panic", r).Str("event_id", event.ID).Msg("Audit store panicked")
		}
	}()

	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if config.LogToStdout {
		l.logToStdout(event)
	}

	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		RecordWriteError()
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

// logToStdout writes an event to the process log in JSON format.
func (l *Logger) logToStdout(event *SecurityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal audit event")
		return
	}
	logging.Info().RawJSON("event", data).Msg("Audit event")
}

// LogSecurityEvent records ev without blocking. Events over the rate cap or
// beyond the buffer are dropped and counted.
//
//nolint:gocritic // hugeParam: event passed by value so callers cannot mutate it after queuing
func (l *Logger) LogSecurityEvent(ctx context.Context, ev SecurityEvent) {
	if l == nil || l.closed.Load() {
		return
	}

	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if !config.Enabled {
		return
	}
	if ev.Severity == "" {
		ev.Severity = SeverityInfo
	}
	if !shouldLog(ev.Severity, config) {
		return
	}
	if l.limiter != nil && !l.limiter.Allow() {
		RecordDropped("rate_limited")
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ctx != nil {
		if ev.RequestID == "" {
			ev.RequestID = logging.RequestIDFromContext(ctx)
		}
		if ev.CorrelationID == "" {
			ev.CorrelationID = logging.CorrelationIDFromContext(ctx)
		}
	}

	select {
	case l.eventChan <- &ev:
		RecordEvent(ev.Decision)
	default:
		RecordDropped("buffer_full")
		logging.Warn().Str("event_id", ev.ID).Msg("Audit event buffer full, dropping event")
	}
}

// shouldLog returns true if the event severity meets the minimum level.
func shouldLog(severity Severity, config *Config) bool {
	if severity == SeverityDebug && !config.IncludeDebug {
		return false
	}
	return severityOrder[severity] >= severityOrder[config.LogLevel]
}

// Close drains the buffer and stops the writer. Safe to call more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.stopOnce.Do(func() {
		l.closed.Store(true)
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// Store returns the backing store.
func (l *Logger) Store() Store {
	return l.store
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	if l == nil || l.store == nil {
		return nil, ErrNotSupported
	}
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	if l == nil || l.store == nil {
		return 0, ErrNotSupported
	}
	return l.store.Count(ctx, filter)
}

// Get retrieves one event by id.
func (l *Logger) Get(ctx context.Context, id string) (*SecurityEvent, error) {
	if l == nil || l.store == nil {
		return nil, ErrNotSupported
	}
	return l.store.Get(ctx, id)
}

// Stats summarizes the backing store when it supports it.
func (l *Logger) Stats(ctx context.Context) (*Stats, error) {
	if l == nil || l.store == nil {
		return nil, ErrNotSupported
	}
	ss, ok := l.store.(StatsStore)
	if !ok {
		return nil, ErrNotSupported
	}
	return ss.GetStats(ctx)
}

// SetEnabled enables or disables audit logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Enabled = enabled
}

// Enabled returns whether audit logging is enabled.
func (l *Logger) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Enabled
}

// Pending returns the number of buffered events not yet written.
func (l *Logger) Pending() int {
	return len(l.eventChan)
}
