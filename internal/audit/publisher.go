package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"kosfinder/pkg/requestcontext"
)

// Publisher hands audit events to the background worker over a buffered
// channel. Emit never blocks the request path: when the buffer is full the
// event is dropped and logged.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the consumer side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Emit enriches the event from the request context and queues it.
func (p *Publisher) Emit(ctx context.Context, action, subject string) {
	if p == nil {
		return
	}
	event := Event{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    requestcontext.UserID(ctx),
		Subject:    subject,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action, "subject", event.Subject)
	}
}
