package storage

import (
	"context"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Dump is the whole-store snapshot used for export, import and the file
// backend. Accounts are in insertion order, transactions in ascending id.
type Dump struct {
	Accounts          []*account.Account         `json:"accounts"`
	Transactions      []*transaction.Transaction `json:"transactions"`
	NextTransactionID int64                      `json:"nextTransactionId"`
}

// ExportDump reads the full ledger.
func ExportDump(ctx context.Context, r *Reader) (*Dump, error) {
	accounts, err := r.Accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("account.List: %w", err)
	}
	transactions, err := r.Transactions.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("transaction.List: %w", err)
	}
	nextID, err := r.Transactions.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("transaction.NextID: %w", err)
	}

	if accounts == nil {
		accounts = []*account.Account{}
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}
	return &Dump{
		Accounts:          accounts,
		Transactions:      transactions,
		NextTransactionID: nextID,
	}, nil
}

// RestoreDump replaces the ledger content with d. It does not validate d.
func RestoreDump(ctx context.Context, w *Writer, d *Dump) error {
	if err := w.Transactions.DeleteAll(ctx); err != nil {
		return fmt.Errorf("transaction.DeleteAll: %w", err)
	}
	if err := w.Accounts.DeleteAll(ctx); err != nil {
		return fmt.Errorf("account.DeleteAll: %w", err)
	}
	for _, a := range d.Accounts {
		if err := w.Accounts.Restore(ctx, a); err != nil {
			return fmt.Errorf("account.Restore %q: %w", a.Name, err)
		}
	}
	for _, t := range d.Transactions {
		if err := w.Transactions.Restore(ctx, t); err != nil {
			return fmt.Errorf("transaction.Restore %d: %w", t.ID, err)
		}
	}
	if err := w.Transactions.SetNextID(ctx, d.NextTransactionID); err != nil {
		return fmt.Errorf("transaction.SetNextID: %w", err)
	}
	return nil
}
