package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestHandleEventRecordsAudit(t *testing.T) {
	store := memory.NewStore()
	w := NewAuditWorker(store, nil)

	msg := &amqp.TransactionEventMessage{
		TransactionID: "t1",
		UserID:        "u1",
		Action:        amqp.ActionCreated,
		OccurredAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries := store.AuditEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.TransactionID != "t1" || e.UserID != "u1" || e.Action != amqp.ActionCreated {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.OccurredAt.Equal(msg.OccurredAt) {
		t.Fatalf("occurred_at drifted: %v", e.OccurredAt)
	}
	if e.RecordedAt.IsZero() || e.ID == "" {
		t.Fatalf("entry missing id or recorded_at: %+v", e)
	}
}

func TestHandleEventDropsMalformed(t *testing.T) {
	store := memory.NewStore()
	w := NewAuditWorker(store, nil)

	malformed := []*amqp.TransactionEventMessage{
		{UserID: "u1", Action: amqp.ActionCreated},
		{TransactionID: "t1", Action: amqp.ActionCreated},
		{TransactionID: "t1", UserID: "u1", Action: "exploded"},
	}
	for _, msg := range malformed {
		if err := w.HandleEvent(context.Background(), msg); err != nil {
			t.Fatalf("malformed event should be dropped, not requeued: %v", err)
		}
	}
	if entries := store.AuditEntries(); len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

type failingAuditStore struct{}

func (failingAuditStore) AppendAudit(context.Context, core.AuditEntry) error {
	return core.ErrStoreUnavailable
}

func TestHandleEventPropagatesStoreFailure(t *testing.T) {
	w := NewAuditWorker(failingAuditStore{}, nil)

	msg := amqp.NewTransactionEventMessage("t1", "u1", amqp.ActionDeleted)
	err := w.HandleEvent(context.Background(), msg)
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("expected store error to propagate for requeue, got %v", err)
	}
}
