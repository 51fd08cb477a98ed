// Package services holds the business logic between HTTP handlers and the
// store.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// EventPublisher publishes transaction events for the audit worker. A nil
// publisher disables eventing without disabling writes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

// SnapshotInvalidator drops cached analytics for one user after a write.
type SnapshotInvalidator interface {
	Invalidate(userID string)
}

// TransactionService orchestrates transaction CRUD: validation, category
// consistency, persistence, events and cache invalidation.
type TransactionService struct {
	store     core.Store
	events    EventPublisher
	snapshots SnapshotInvalidator
	logger    *log.Logger
}

func NewTransactionService(store core.Store, events EventPublisher, snapshots SnapshotInvalidator, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		store:     store,
		events:    events,
		snapshots: snapshots,
		logger:    logger.WithComponent("transaction"),
	}
}

// checkCategory verifies the referenced category exists and its type
// matches the transaction's type.
func (s *TransactionService) checkCategory(ctx context.Context, categoryID string, typ core.TransactionType) error {
	cat, err := s.store.CategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrUnknownCategory
		}
		return fmt.Errorf("load category: %w", err)
	}
	if cat.Type != typ {
		return core.ErrCategoryTypeMismatch
	}
	return nil
}

// Create validates and persists a new transaction owned by userID.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, t.CategoryID, t.Type); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.afterWrite(ctx, created.ID, userID, amqp.ActionCreated)
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, created.ID,
		log.FieldUserID, userID,
		log.FieldAmountCents, created.Amount.Cents)
	return created, nil
}

// Get returns one transaction scoped to its owner.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.TransactionByID(ctx, userID, id)
}

// Update applies a partial update, re-validating category consistency
// against the resulting state.
func (s *TransactionService) Update(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	existing, err := s.store.TransactionByID(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	categoryID := existing.CategoryID
	if p.CategoryID != nil {
		categoryID = *p.CategoryID
	}
	typ := existing.Type
	if p.Type != nil {
		typ = *p.Type
	}
	if err := s.checkCategory(ctx, categoryID, typ); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, userID, id, p)
	if err != nil {
		return core.Transaction{}, err
	}

	s.afterWrite(ctx, id, userID, amqp.ActionUpdated)
	return updated, nil
}

// Delete removes an owned transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, id, userID, amqp.ActionDeleted)
	return nil
}

// List returns one page of the user's transactions and the total match
// count.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.TransactionWithCategory, int, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

// afterWrite publishes the audit event and drops stale analytics. Event
// failures are logged, never surfaced: the write already happened.
func (s *TransactionService) afterWrite(ctx context.Context, transactionID, userID, action string) {
	if s.snapshots != nil {
		s.snapshots.Invalidate(userID)
	}
	if s.events == nil {
		return
	}
	msg := amqp.NewTransactionEventMessage(transactionID, userID, action)
	if err := s.events.PublishTransactionEvent(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, transactionID,
			log.FieldAction, action,
			log.FieldError, err.Error())
	}
}
