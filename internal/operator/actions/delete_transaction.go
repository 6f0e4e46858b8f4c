package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// DeleteTransaction removes a transaction and its refs and recomputes the
// cached balances of both endpoints. Snapshots of later transactions are left
// as they were.
type DeleteTransaction struct {
	Engine *balance.Engine
	ID     int64

	Result *transaction.Transaction
}

func (d *DeleteTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	existing, err := writer.Transactions.FindByID(ctx, d.ID)
	if errors.Is(err, transaction.ErrNotFound) {
		return fmt.Errorf("%w: transaction %d", ledger.ErrNotFound, d.ID)
	}
	if err != nil {
		return ledger.StorageFailure("transaction.FindByID", err)
	}

	if err := writer.Transactions.Delete(ctx, d.ID); err != nil {
		return ledger.StorageFailure("transaction.Delete", err)
	}
	for _, name := range []string{existing.FromAccount, existing.ToAccount} {
		if err := writer.Accounts.RemoveTransactionRef(ctx, name, d.ID); err != nil {
			return ledger.StorageFailure("account.RemoveTransactionRef", err)
		}
	}
	if err := d.Engine.Refresh(ctx, writer, existing.FromAccount, existing.ToAccount); err != nil {
		return err
	}

	d.Result = existing
	return nil
}
