package transaction

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/service"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID             int64     `json:"id" doc:"Transaction id, never reused"`
	FromAccount    string    `json:"fromAccount" doc:"Debited account"`
	ToAccount      string    `json:"toAccount" doc:"Credited account"`
	Amount         int64     `json:"amount" doc:"Positive whole amount"`
	AvailableMoney int64     `json:"availableMoney" doc:"Balance of fromAccount right after this transaction"`
	Type           string    `json:"type" doc:"Free-form type"`
	Category       string    `json:"category" doc:"Free-form category"`
	Comment        string    `json:"comment" doc:"Optional comment"`
	CreatedAt      time.Time `json:"createdAt" doc:"Transaction time"`
}

// TransactionDetail is a transaction with the balances recorded right after it.
type TransactionDetail struct {
	Transaction Transaction      `json:"transaction"`
	Balances    map[string]int64 `json:"balances" doc:"Balance of every account right after the transaction; historical, not updated by later edits"`
}

func fromService(t service.Transaction) Transaction {
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

func detailFromService(d *service.TransactionDetail) TransactionDetail {
	balances := d.Balances
	if balances == nil {
		balances = map[string]int64{}
	}
	return TransactionDetail{
		Transaction: fromService(d.Transaction),
		Balances:    balances,
	}
}
