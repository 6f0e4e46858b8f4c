package service

import (
	"time"

	"github.com/aarondl/opt/omit"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Account represents an account in the service layer. Balance is recomputed
// from history; CachedBalance is what the store holds.
type Account struct {
	Name             string
	Reserved         bool
	StartingBalance  int64
	Balance          int64
	CachedBalance    int64
	TransactionCount int
	CreatedAt        time.Time
}

// Transaction represents a transaction in the service layer.
type Transaction struct {
	ID             int64
	FromAccount    string
	ToAccount      string
	Amount         int64
	AvailableMoney int64
	Type           string
	Category       string
	Comment        string
	CreatedAt      time.Time
}

// TransactionDetail is a transaction with the balances recorded right after
// it. The snapshot is historical and may be stale after edits or deletes.
type TransactionDetail struct {
	Transaction Transaction
	Balances    map[string]int64
}

// TransferRequest is a validated-shape transfer; the engine checks it.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      int64
	Type        string
	Category    string
	Comment     string
	CreatedAt   time.Time // defaults to now if zero
}

// TransactionEdit carries the fields to change. Unset fields are kept.
type TransactionEdit struct {
	FromAccount omit.Val[string]
	ToAccount   omit.Val[string]
	Amount      omit.Val[int64]
	Type        omit.Val[string]
	Category    omit.Val[string]
	Comment     omit.Val[string]
	CreatedAt   omit.Val[time.Time]
}

// TransactionCursor identifies a position in a paginated result set.
type TransactionCursor struct {
	Position int
	Limit    int
}

func accountFromStorage(a *account.Account, bal int64) Account {
	return Account{
		Name:             a.Name,
		Reserved:         a.Kind == account.KindReserved,
		StartingBalance:  a.StartingBalance,
		Balance:          bal,
		CachedBalance:    a.Balance,
		TransactionCount: len(a.TransactionRefs),
		CreatedAt:        a.CreatedAt,
	}
}

func accountFromBalance(b balance.AccountBalance) Account {
	return accountFromStorage(b.Account, b.Balance)
}

func transactionFromStorage(t *transaction.Transaction) Transaction {
	return Transaction{
		ID:             t.ID,
		FromAccount:    t.FromAccount,
		ToAccount:      t.ToAccount,
		Amount:         t.Amount,
		AvailableMoney: t.AvailableMoney,
		Type:           t.Type,
		Category:       t.Category,
		Comment:        t.Comment,
		CreatedAt:      t.CreatedAt,
	}
}

func detailFromStorage(t *transaction.Transaction) *TransactionDetail {
	return &TransactionDetail{
		Transaction: transactionFromStorage(t),
		Balances:    snapshotCopy(t.AccountsBalance),
	}
}

func (e *TransactionEdit) toStorage() *transaction.TransactionUpdate {
	return &transaction.TransactionUpdate{
		FromAccount: e.FromAccount,
		ToAccount:   e.ToAccount,
		Amount:      e.Amount,
		Type:        e.Type,
		Category:    e.Category,
		Comment:     e.Comment,
		CreatedAt:   e.CreatedAt,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
