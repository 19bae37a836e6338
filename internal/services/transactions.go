package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luchesigui/finance-manager-sub000/internal/amqp"
	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

// ErrVirtualTransaction is returned when a write targets a synthesized
// row. Virtual rows are recomputed on every read and never mutated;
// accepting one means creating a real row linked to the same template.
var ErrVirtualTransaction = errors.New("virtual transactions cannot be written")

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, householdID, id int64) error
		BulkUpdateTransactions(ctx context.Context, householdID int64, ids []int64, patch core.TransactionPatch) (int64, error)
		BulkDeleteTransactions(ctx context.Context, householdID int64, ids []int64) (int64, error)
	}

	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
	}
)

// TransactionService persists transaction writes and publishes sync events
// for the export worker. Publish failures are logged, never fatal: the
// local write already succeeded.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
}

func NewTransactionService(store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Source = core.SourceStored
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, amqp.NewSyncMessage(created.HouseholdID, created.ID, 1))
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if t.ID <= 0 || t.Source == core.SourceRecurring {
		return ErrVirtualTransaction
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}

	s.publish(ctx, amqp.NewSyncMessage(t.HouseholdID, t.ID, 2))
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, householdID, id int64) error {
	if id <= 0 {
		return ErrVirtualTransaction
	}

	if err := s.store.DeleteTransaction(ctx, householdID, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.publish(ctx, amqp.NewDeleteMessage(householdID, id))
	return nil
}

// BulkUpdate applies a partial patch to several stored rows at once.
func (s *TransactionService) BulkUpdate(ctx context.Context, householdID int64, ids []int64, patch core.TransactionPatch) (int64, error) {
	if err := rejectVirtualIDs(ids); err != nil {
		return 0, err
	}
	n, err := s.store.BulkUpdateTransactions(ctx, householdID, ids, patch)
	if err != nil {
		return 0, fmt.Errorf("bulk update transactions: %w", err)
	}
	for _, id := range ids {
		s.publish(ctx, amqp.NewSyncMessage(householdID, id, 2))
	}
	return n, nil
}

func (s *TransactionService) BulkDelete(ctx context.Context, householdID int64, ids []int64) (int64, error) {
	if err := rejectVirtualIDs(ids); err != nil {
		return 0, err
	}
	n, err := s.store.BulkDeleteTransactions(ctx, householdID, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete transactions: %w", err)
	}
	for _, id := range ids {
		s.publish(ctx, amqp.NewDeleteMessage(householdID, id))
	}
	return n, nil
}

func rejectVirtualIDs(ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return ErrVirtualTransaction
		}
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionEventMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", msg.Kind, "id", msg.ID, "error", err)
	}
}
