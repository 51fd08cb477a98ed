// Package worker consumes transaction events and appends them to the
// audit log.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// AuditWorker turns transaction events into append-only audit entries.
type AuditWorker struct {
	audit  core.AuditStore
	logger *log.Logger
}

func NewAuditWorker(audit core.AuditStore, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{
		audit:  audit,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent records one transaction event. Returning an error requeues
// the message.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if msg.TransactionID == "" || msg.UserID == "" {
		// Malformed events are recorded nowhere and must not requeue
		// forever; treat them as handled.
		w.logger.WarnContext(ctx, "Dropping malformed transaction event",
			log.FieldTransactionID, msg.TransactionID,
			log.FieldUserID, msg.UserID)
		return nil
	}
	switch msg.Action {
	case amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted:
	default:
		w.logger.WarnContext(ctx, "Dropping event with unknown action",
			log.FieldAction, msg.Action)
		return nil
	}

	entry := core.AuditEntry{
		TransactionID: msg.TransactionID,
		UserID:        msg.UserID,
		Action:        msg.Action,
		OccurredAt:    msg.OccurredAt,
	}
	if err := w.audit.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Audit entry recorded",
		log.FieldTransactionID, msg.TransactionID,
		log.FieldUserID, msg.UserID,
		log.FieldAction, msg.Action)
	return nil
}

// Run consumes events from the client until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
		return w.HandleEvent(ctx, msg)
	})
}
