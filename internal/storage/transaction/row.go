package transaction

import "time"

// transactionRow is the transactions table as scanned by bob.
type transactionRow struct {
	ID              int64           `db:"id"`
	FromAccount     string          `db:"from_account"`
	ToAccount       string          `db:"to_account"`
	Amount          int64           `db:"amount"`
	AvailableMoney  int64           `db:"available_money"`
	Type            string          `db:"type"`
	Category        string          `db:"category"`
	Comment         string          `db:"comment"`
	CreatedAt       time.Time       `db:"created_at"`
	AccountsBalance BalanceSnapshot `db:"accounts_balance"`
}

var transactionColumns = []any{
	"id", "from_account", "to_account", "amount", "available_money",
	"type", "category", "comment", "created_at", "accounts_balance",
}

func rowToTransaction(row *transactionRow) *Transaction {
	return &Transaction{
		ID:              row.ID,
		FromAccount:     row.FromAccount,
		ToAccount:       row.ToAccount,
		Amount:          row.Amount,
		AvailableMoney:  row.AvailableMoney,
		Type:            row.Type,
		Category:        row.Category,
		Comment:         row.Comment,
		CreatedAt:       row.CreatedAt.UTC(),
		AccountsBalance: row.AccountsBalance,
	}
}
