package account

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	Name             string    `json:"name" doc:"Account name"`
	Reserved         bool      `json:"reserved" doc:"Income and Expense are reserved flow accounts pinned at zero"`
	StartingBalance  int64     `json:"startingBalance" doc:"Balance the account was created with"`
	Balance          int64     `json:"balance" doc:"Balance recomputed from the account's history"`
	CachedBalance    int64     `json:"cachedBalance" doc:"Balance currently stored on the account"`
	TransactionCount int       `json:"transactionCount" doc:"Number of transactions the account takes part in"`
	CreatedAt        time.Time `json:"createdAt" doc:"Creation time"`
}

func fromService(a service.Account) Account {
	return Account{
		Name:             a.Name,
		Reserved:         a.Reserved,
		StartingBalance:  a.StartingBalance,
		Balance:          a.Balance,
		CachedBalance:    a.CachedBalance,
		TransactionCount: a.TransactionCount,
		CreatedAt:        a.CreatedAt,
	}
}
