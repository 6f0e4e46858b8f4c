package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// ImportLedger replaces the whole store with Dump. The dump is validated
// before anything is touched; cached balances and snapshots are taken as
// given so that an export imports back unchanged.
type ImportLedger struct {
	Dump *storage.Dump
}

func (i *ImportLedger) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := ValidateDump(i.Dump); err != nil {
		return err
	}
	if err := storage.RestoreDump(ctx, writer, i.Dump); err != nil {
		return ledger.StorageFailure("storage.RestoreDump", err)
	}
	return nil
}

// ValidateDump checks that d is a complete, self-consistent ledger.
func ValidateDump(d *storage.Dump) error {
	if d == nil || d.Accounts == nil || d.Transactions == nil {
		return ledger.InvalidInput("snapshot must contain accounts and transactions")
	}

	accounts := make(map[string]*account.Account, len(d.Accounts))
	for _, a := range d.Accounts {
		if a == nil || len(a.Name) == 0 {
			return ledger.InvalidInput("account without a name")
		}
		if _, dup := accounts[a.Name]; dup {
			return ledger.InvalidInput("account %q appears twice", a.Name)
		}
		reserved := a.Kind == account.KindReserved
		if reserved != ledger.IsReserved(a.Name) {
			return ledger.InvalidInput("account %q has kind %s", a.Name, a.Kind)
		}
		accounts[a.Name] = a
	}
	for _, name := range ledger.ReservedNames {
		if _, ok := accounts[name]; !ok {
			return ledger.InvalidInput("reserved account %q is missing", name)
		}
	}

	byID := make(map[int64]*transaction.Transaction, len(d.Transactions))
	var lastID int64
	for _, t := range d.Transactions {
		if t == nil || t.ID <= lastID {
			return ledger.InvalidInput("transactions must have ascending positive ids")
		}
		lastID = t.ID
		byID[t.ID] = t

		if t.Amount <= 0 {
			return ledger.InvalidInput("transaction %d has amount %d", t.ID, t.Amount)
		}
		if t.FromAccount == t.ToAccount {
			return ledger.InvalidInput("transaction %d moves money from %q to itself", t.ID, t.FromAccount)
		}
		for _, name := range []string{t.FromAccount, t.ToAccount} {
			a, ok := accounts[name]
			if !ok {
				return ledger.InvalidInput("transaction %d references unknown account %q", t.ID, name)
			}
			if !containsRef(a.TransactionRefs, t.ID) {
				return ledger.InvalidInput("account %q does not reference transaction %d", name, t.ID)
			}
		}
	}

	history := balance.NewHistory(d.Transactions)
	engine := balance.NewEngine()
	for _, a := range d.Accounts {
		seen := make(map[int64]bool, len(a.TransactionRefs))
		for _, id := range a.TransactionRefs {
			if seen[id] {
				return ledger.InvalidInput("account %q references transaction %d twice", a.Name, id)
			}
			seen[id] = true
			if t, ok := byID[id]; !ok || !t.Involves(a.Name) {
				return ledger.InvalidInput("account %q references transaction %d it is not part of", a.Name, id)
			}
		}
		if _, err := engine.Fold(a, history); err != nil {
			return err
		}
	}

	if d.NextTransactionID != 0 && d.NextTransactionID <= lastID {
		return ledger.InvalidInput("nextTransactionId %d is not above the last id %d", d.NextTransactionID, lastID)
	}
	return nil
}

func containsRef(refs []int64, id int64) bool {
	for _, ref := range refs {
		if ref == id {
			return true
		}
	}
	return false
}
