// Package export defines the outbound ports the sync worker mirrors
// transactions through.
package export

import (
	"context"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

type (
	// TransactionWriter appends one stored transaction to the export
	// backend and returns a backend-specific row reference.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously exported transaction.
	TransactionRemover interface {
		Remove(ctx context.Context, transactionID int64) error
	}
)
