package actions

import (
	"context"
	"errors"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

// IAction is one unit of work performed inside a single write transaction.
// Results are left on the action's own fields.
type IAction interface {
	Perform(ctx context.Context, writer *storage.Writer) error
}

// ensureReserved creates the reserved accounts that are missing.
func ensureReserved(ctx context.Context, writer *storage.Writer) error {
	for _, name := range ledger.ReservedNames {
		_, err := writer.Accounts.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, account.ErrNotFound) {
			return ledger.StorageFailure("account.FindByName", err)
		}

		_, err = writer.Accounts.Insert(ctx, &account.AccountCreate{
			Name: name,
			Kind: account.KindReserved,
		})
		if err != nil {
			return ledger.StorageFailure("account.Insert", err)
		}
	}
	return nil
}

// EnsureReserved is run at startup so a fresh store always has Income and
// Expense.
type EnsureReserved struct{}

func (e *EnsureReserved) Perform(ctx context.Context, writer *storage.Writer) error {
	return ensureReserved(ctx, writer)
}
