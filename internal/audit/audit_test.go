package audit_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/audit"
)

func TestWorkerPersistsEvents(t *testing.T) {
	store := audit.NewInMemoryStore()
	inbox := make(chan audit.Event, 8)
	worker := audit.NewWorker(store, nil, inbox, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	recorder := audit.NewRecorder(inbox, slog.Default())
	recorder.Emit(ctx, audit.Event{
		Action:    audit.ActionCredentialIssued,
		ActorDID:  "did:alyra:issuer",
		SubjectID: "cred-1",
	})

	require.Eventually(t, func() bool {
		events, err := store.ListByActor(context.Background(), "did:alyra:issuer")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByActor(context.Background(), "did:alyra:issuer")
	require.NoError(t, err)
	assert.Equal(t, audit.ActionCredentialIssued, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	inbox := make(chan audit.Event, 1)
	recorder := audit.NewRecorder(inbox, slog.Default())

	ctx := context.Background()
	recorder.Emit(ctx, audit.Event{Action: audit.ActionConsentGranted, ActorDID: "a"})
	// Inbox is full; this must not block.
	recorder.Emit(ctx, audit.Event{Action: audit.ActionConsentRevoked, ActorDID: "a"})

	assert.Len(t, inbox, 1)
}

type failingSink struct{ calls atomic.Int32 }

func (f *failingSink) Publish(context.Context, audit.Event) error {
	f.calls.Add(1)
	return assert.AnError
}

func TestWorkerToleratesSinkFailure(t *testing.T) {
	store := audit.NewInMemoryStore()
	sink := &failingSink{}
	inbox := make(chan audit.Event, 1)
	worker := audit.NewWorker(store, sink, inbox, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- audit.Event{Action: audit.ActionSchemaCreated, ActorDID: "did:alyra:x", Timestamp: time.Now()}

	require.Eventually(t, func() bool {
		events, err := store.ListByActor(context.Background(), "did:alyra:x")
		return err == nil && len(events) == 1 && sink.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
