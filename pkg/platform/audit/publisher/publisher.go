// Package publisher decouples audit emission from persistence. Domain
// services call Emit and move on; buffering and the concrete store are this
// package's concern.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "praisa/pkg/platform/audit"
)

// Publisher enriches and persists audit events. In sync mode Emit writes
// through to the store; with an async buffer Emit enqueues and a background
// goroutine drains, so a slow sink never blocks request handling.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(p *Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger attaches a logger for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a Publisher over a store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit enriches the event (ID, timestamp, category) and hands it to the
// store. Audit failures are logged, never propagated into request paths.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Category == "" {
		event.Category = audit.CategoryOf(audit.AuditEvent(event.Action))
	}

	if p.inbox == nil {
		p.append(ctx, event)
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		// Buffer full: drop rather than stall the request path.
		p.logWarn("audit buffer full, dropping event", event)
	}
	return nil
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		p.append(context.Background(), event)
	}
}

func (p *Publisher) append(ctx context.Context, event audit.Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logWarn("audit append failed", event, "error", err.Error())
	}
}

func (p *Publisher) logWarn(msg string, event audit.Event, args ...any) {
	if p.logger == nil {
		return
	}
	args = append([]any{"action", event.Action, "source_id", event.SourceID}, args...)
	p.logger.Warn(msg, args...)
}
