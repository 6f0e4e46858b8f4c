package storage

import (
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type Reader struct {
	Accounts     account.IAccountReader
	Transactions transaction.ITransactionReader
}

func NewReader(tx Tx) *Reader {
	return &Reader{
		Accounts:     tx.Accounts(),
		Transactions: tx.Transactions(),
	}
}
