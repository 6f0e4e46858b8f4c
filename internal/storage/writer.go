package storage

import (
	"context"
	"sync"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type Writer struct {
	tx          Tx
	release     func()
	releaseOnce sync.Once

	Accounts     account.IAccountWriter
	Transactions transaction.ITransactionWriter
}

func newWriter(tx Tx, release func()) *Writer {
	return &Writer{
		tx:           tx,
		release:      release,
		Accounts:     tx.Accounts(),
		Transactions: tx.Transactions(),
	}
}

// Reader exposes the writer's uncommitted view through the read interfaces.
func (w *Writer) Reader() *Reader {
	return &Reader{
		Accounts:     w.Accounts,
		Transactions: w.Transactions,
	}
}

func (w *Writer) Commit(ctx context.Context) error {
	defer w.done()
	return w.tx.Commit(ctx)
}

// Rollback is safe to call after Commit; it then only releases the lock.
func (w *Writer) Rollback(ctx context.Context) error {
	defer w.done()
	return w.tx.Rollback(ctx)
}

func (w *Writer) done() {
	w.releaseOnce.Do(w.release)
}
