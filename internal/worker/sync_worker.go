package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luchesigui/finance-manager-sub000/internal/amqp"
	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/export"
	"github.com/luchesigui/finance-manager-sub000/internal/storage"
)

// TransactionGetter is the single storage read the worker needs.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, householdID, id int64) (core.Transaction, error)
}

// SyncWorker mirrors transaction writes and deletions to an external
// export target (Google Sheets in production).
type SyncWorker struct {
	storage TransactionGetter
	writer  export.TransactionWriter
	remover export.TransactionRemover
}

func NewSyncWorker(storage TransactionGetter, writer export.TransactionWriter, remover export.TransactionRemover) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		writer:  writer,
		remover: remover,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"kind", msg.Kind,
		"id", msg.ID,
		"version", msg.Version)

	switch msg.Kind {
	case amqp.KindSync:
		return w.handleSync(ctx, msg)
	case amqp.KindDelete:
		return w.handleDelete(ctx, msg)
	default:
		// Unknown kinds are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Unknown event kind, skipping",
			"kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if w.writer == nil {
		slog.WarnContext(ctx, "No writer configured, skipping export",
			"id", msg.ID)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, msg.HouseholdID, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between publish and consume; the delete event
			// will follow, nothing to export.
			slog.WarnContext(ctx, "Transaction no longer exists, skipping export",
				"id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", msg.ID,
		"ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping export deletion",
			"id", msg.ID)
		return nil
	}

	if err := w.remover.Remove(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove exported transaction: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction removed",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}
