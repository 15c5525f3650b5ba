package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pidstore/pkg/platform/middleware/metadata"
	"pidstore/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// With a queue configured, Emit hands events to a Worker without blocking;
// when the queue is full the event is written to the store directly.
type Publisher struct {
	store  Store
	queue  chan<- Event
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithQueue makes Emit asynchronous through queue.
func WithQueue(queue chan<- Event) PublisherOption {
	return func(p *Publisher) {
		p.queue = queue
	}
}

// WithPublisherLogger sets the logger used for fallback warnings.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in the ID, timestamp, actor, request ID and caller metadata from
// ctx when unset and records the event.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if base.Actor == "" {
		base.Actor = requestcontext.Subject(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if base.ClientIP == "" {
		base.ClientIP = metadata.GetClientIP(ctx)
	}
	if base.UserAgent == "" {
		base.UserAgent = metadata.GetUserAgent(ctx)
	}

	if p.queue != nil {
		select {
		case p.queue <- base:
			return nil
		default:
			p.logger.WarnContext(ctx, "audit queue full, writing event directly",
				"action", base.Action,
				"pid", base.PIDValue,
			)
		}
	}
	return p.store.Append(ctx, base)
}

// List returns the recorded events for a DOI.
func (p *Publisher) List(ctx context.Context, pidValue string) ([]Event, error) {
	return p.store.ListByPID(ctx, pidValue)
}
