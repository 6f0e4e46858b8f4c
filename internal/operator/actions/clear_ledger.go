package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// ClearLedger removes every transaction and account and recreates the
// reserved accounts. The id sequence is not reset.
type ClearLedger struct{}

func (c *ClearLedger) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := writer.Transactions.DeleteAll(ctx); err != nil {
		return ledger.StorageFailure("transaction.DeleteAll", err)
	}
	if err := writer.Accounts.DeleteAll(ctx); err != nil {
		return ledger.StorageFailure("account.DeleteAll", err)
	}
	return ensureReserved(ctx, writer)
}
