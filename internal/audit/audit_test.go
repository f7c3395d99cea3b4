package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosfinder/pkg/requestcontext"
)

func TestPublisherEnrichesFromContext(t *testing.T) {
	publisher := NewPublisher(4, slog.Default())

	ctx := requestcontext.WithCaller(context.Background(), "owner-1", "USER")
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.9", "go-test")

	publisher.Emit(ctx, ActionListingCreated, "kos-melati")

	select {
	case event := <-publisher.Inbox():
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, ActionListingCreated, event.Action)
		assert.Equal(t, "owner-1", event.ActorID)
		assert.Equal(t, "kos-melati", event.Subject)
		assert.Equal(t, "req-42", event.RequestID)
		assert.Equal(t, "10.0.0.9", event.ClientIP)
		assert.Equal(t, "go-test", event.UserAgent)
		assert.False(t, event.OccurredAt.IsZero())
	default:
		t.Fatal("expected event on inbox")
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	publisher := NewPublisher(1, slog.Default())

	publisher.Emit(context.Background(), ActionListingCreated, "a")
	publisher.Emit(context.Background(), ActionListingCreated, "b")

	assert.Len(t, publisher.Inbox(), 1)
	event := <-publisher.Inbox()
	assert.Equal(t, "a", event.Subject)
}

func TestWorkerPersistsEvents(t *testing.T) {
	store := NewInMemory()
	publisher := NewPublisher(4, slog.Default())
	worker := NewWorker(store, publisher.Inbox(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	publisher.Emit(context.Background(), ActionListingDeleted, "kos-mawar")

	require.Eventually(t, func() bool {
		events, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	events, err := store.ListByActor(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "kos-mawar", events[0].Subject)
}
