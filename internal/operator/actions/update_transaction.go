package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// UpdateTransaction edits a transaction in place. The id, available money and
// snapshot are kept; when the amount or an endpoint changes the refs move and
// the cached balances of every touched account are recomputed.
type UpdateTransaction struct {
	Engine *balance.Engine
	ID     int64
	Update *transaction.TransactionUpdate

	Result *transaction.Transaction
}

func (u *UpdateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	if u.Update == nil || u.Update.IsEmpty() {
		return ledger.InvalidInput("no fields to update")
	}

	current, err := writer.Transactions.FindByID(ctx, u.ID)
	if errors.Is(err, transaction.ErrNotFound) {
		return fmt.Errorf("%w: transaction %d", ledger.ErrNotFound, u.ID)
	}
	if err != nil {
		return ledger.StorageFailure("transaction.FindByID", err)
	}

	next := current.Clone()
	u.Update.Apply(next)
	if err := u.validate(ctx, writer, next); err != nil {
		return err
	}
	if createdAt, ok := u.Update.CreatedAt.Get(); ok {
		u.Update.CreatedAt.Set(createdAt.UTC().Truncate(time.Microsecond))
	}

	updated, err := writer.Transactions.Update(ctx, u.ID, u.Update)
	if err != nil {
		return ledger.StorageFailure("transaction.Update", err)
	}

	endpointsChanged := current.FromAccount != updated.FromAccount || current.ToAccount != updated.ToAccount
	if endpointsChanged {
		for _, name := range []string{current.FromAccount, current.ToAccount} {
			if !updated.Involves(name) {
				if err := writer.Accounts.RemoveTransactionRef(ctx, name, u.ID); err != nil {
					return ledger.StorageFailure("account.RemoveTransactionRef", err)
				}
			}
		}
		for _, name := range []string{updated.FromAccount, updated.ToAccount} {
			if err := writer.Accounts.AddTransactionRef(ctx, name, u.ID); err != nil {
				return ledger.StorageFailure("account.AddTransactionRef", err)
			}
		}
	}

	if endpointsChanged || current.Amount != updated.Amount {
		err := u.Engine.Refresh(ctx, writer,
			current.FromAccount, current.ToAccount, updated.FromAccount, updated.ToAccount)
		if err != nil {
			return err
		}
	}

	u.Result = updated
	return nil
}

func (u *UpdateTransaction) validate(ctx context.Context, writer *storage.Writer, next *transaction.Transaction) error {
	if next.Amount <= 0 {
		return fmt.Errorf("%w: got %d", ledger.ErrInvalidAmount, next.Amount)
	}
	if len(next.FromAccount) == 0 || len(next.ToAccount) == 0 {
		return ledger.InvalidInput("fromAccount and toAccount are required")
	}
	if next.FromAccount == next.ToAccount {
		return ledger.InvalidInput("cannot transfer from %q to itself", next.FromAccount)
	}
	if createdAt, ok := u.Update.CreatedAt.Get(); ok && createdAt.IsZero() {
		return ledger.InvalidInput("createdAt must be set")
	}

	for _, name := range []string{next.FromAccount, next.ToAccount} {
		_, err := writer.Accounts.FindByName(ctx, name)
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("%w: %q", ledger.ErrUnknownAccount, name)
		}
		if err != nil {
			return ledger.StorageFailure("account.FindByName", err)
		}
	}
	return nil
}
