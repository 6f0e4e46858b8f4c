package ledger

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// LedgerAccount is an account as it appears in an export. The JSON layout is
// the one the file backend and ledgerctl use, so their files import here too.
type LedgerAccount struct {
	Name            string    `json:"name" minLength:"1" doc:"Account name"`
	Kind            int       `json:"kind" enum:"0,1" doc:"0 for regular accounts, 1 for Income and Expense"`
	StartingBalance int64     `json:"startingBalance" doc:"Balance the account was created with"`
	Balance         int64     `json:"balance" doc:"Cached balance"`
	TransactionRefs []int64   `json:"transactionRefs" doc:"Ids of the transactions the account takes part in"`
	CreatedAt       time.Time `json:"createdAt"`
}

// LedgerTransaction is a transaction as it appears in an export.
type LedgerTransaction struct {
	ID              int64            `json:"id" minimum:"1"`
	FromAccount     string           `json:"fromAccount"`
	ToAccount       string           `json:"toAccount"`
	Amount          int64            `json:"amount"`
	AvailableMoney  int64            `json:"availableMoney"`
	Type            string           `json:"type"`
	Category        string           `json:"category"`
	Comment         string           `json:"comment"`
	CreatedAt       time.Time        `json:"createdAt"`
	AccountsBalance map[string]int64 `json:"accountsBalance,omitempty" doc:"Balances recorded right after the transaction"`
}

// LedgerDump is a whole ledger.
type LedgerDump struct {
	Accounts          []LedgerAccount     `json:"accounts"`
	Transactions      []LedgerTransaction `json:"transactions"`
	NextTransactionID int64               `json:"nextTransactionId" minimum:"0" doc:"Id the next transfer receives"`
}

func dumpFromStorage(d *storage.Dump) LedgerDump {
	out := LedgerDump{
		Accounts:          make([]LedgerAccount, 0, len(d.Accounts)),
		Transactions:      make([]LedgerTransaction, 0, len(d.Transactions)),
		NextTransactionID: d.NextTransactionID,
	}
	for _, a := range d.Accounts {
		refs := a.TransactionRefs
		if refs == nil {
			refs = []int64{}
		}
		out.Accounts = append(out.Accounts, LedgerAccount{
			Name:            a.Name,
			Kind:            int(a.Kind),
			StartingBalance: a.StartingBalance,
			Balance:         a.Balance,
			TransactionRefs: refs,
			CreatedAt:       a.CreatedAt,
		})
	}
	for _, t := range d.Transactions {
		out.Transactions = append(out.Transactions, LedgerTransaction{
			ID:              t.ID,
			FromAccount:     t.FromAccount,
			ToAccount:       t.ToAccount,
			Amount:          t.Amount,
			AvailableMoney:  t.AvailableMoney,
			Type:            t.Type,
			Category:        t.Category,
			Comment:         t.Comment,
			CreatedAt:       t.CreatedAt,
			AccountsBalance: t.AccountsBalance,
		})
	}
	return out
}

func (d *LedgerDump) toStorage() *storage.Dump {
	out := &storage.Dump{
		Accounts:          make([]*account.Account, 0, len(d.Accounts)),
		Transactions:      make([]*transaction.Transaction, 0, len(d.Transactions)),
		NextTransactionID: d.NextTransactionID,
	}
	for _, a := range d.Accounts {
		refs := a.TransactionRefs
		if refs == nil {
			refs = []int64{}
		}
		out.Accounts = append(out.Accounts, &account.Account{
			Name:            a.Name,
			Kind:            account.Kind(a.Kind),
			StartingBalance: a.StartingBalance,
			Balance:         a.Balance,
			TransactionRefs: refs,
			CreatedAt:       a.CreatedAt.UTC(),
		})
	}
	for _, t := range d.Transactions {
		out.Transactions = append(out.Transactions, &transaction.Transaction{
			ID:              t.ID,
			FromAccount:     t.FromAccount,
			ToAccount:       t.ToAccount,
			Amount:          t.Amount,
			AvailableMoney:  t.AvailableMoney,
			Type:            t.Type,
			Category:        t.Category,
			Comment:         t.Comment,
			CreatedAt:       t.CreatedAt.UTC(),
			AccountsBalance: transaction.BalanceSnapshot(t.AccountsBalance),
		})
	}
	return out
}
