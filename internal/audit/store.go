package audit

import "context"

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
