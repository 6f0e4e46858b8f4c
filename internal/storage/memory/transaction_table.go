package memory

import (
	"context"
	"time"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type transactionTable struct {
	tx *memTx
}

var _ transaction.ITransactionWriter = (*transactionTable)(nil)

func (t *transactionTable) FindByID(_ context.Context, id int64) (*transaction.Transaction, error) {
	i, found := t.tx.state.search(id)
	if !found {
		return nil, transaction.ErrNotFound
	}
	return t.tx.state.transactions[i].Clone(), nil
}

func (t *transactionTable) List(_ context.Context, filter *transaction.TransactionFilter) ([]*transaction.Transaction, error) {
	rows := t.tx.state.transactions
	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(rows) {
				rows = nil
			} else {
				rows = rows[filter.Offset:]
			}
		}
		if filter.Limit > 0 && len(rows) > filter.Limit+1 {
			rows = rows[:filter.Limit+1]
		}
	}

	result := make([]*transaction.Transaction, len(rows))
	for i, row := range rows {
		result[i] = row.Clone()
	}
	return result, nil
}

func (t *transactionTable) NextID(_ context.Context) (int64, error) {
	return t.tx.state.nextID, nil
}

func (t *transactionTable) Insert(_ context.Context, create *transaction.TransactionCreate) (*transaction.Transaction, error) {
	if err := t.tx.writable(); err != nil {
		return nil, err
	}

	createdAt := create.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	st := t.tx.state
	row := &transaction.Transaction{
		ID:              st.nextID,
		FromAccount:     create.FromAccount,
		ToAccount:       create.ToAccount,
		Amount:          create.Amount,
		AvailableMoney:  create.AvailableMoney,
		Type:            create.Type,
		Category:        create.Category,
		Comment:         create.Comment,
		CreatedAt:       createdAt,
		AccountsBalance: create.AccountsBalance.Clone(),
	}
	st.nextID++
	st.transactions = append(st.transactions, row)
	return row.Clone(), nil
}

func (t *transactionTable) Restore(_ context.Context, row *transaction.Transaction) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	st := t.tx.state
	i, found := st.search(row.ID)
	if found {
		return transaction.ErrDuplicate
	}
	st.insertAt(i, row.Clone())
	if row.ID >= st.nextID {
		st.nextID = row.ID + 1
	}
	return nil
}

func (t *transactionTable) Update(_ context.Context, id int64, update *transaction.TransactionUpdate) (*transaction.Transaction, error) {
	if err := t.tx.writable(); err != nil {
		return nil, err
	}
	i, found := t.tx.state.search(id)
	if !found {
		return nil, transaction.ErrNotFound
	}
	row := t.tx.state.transactions[i]
	if update != nil {
		update.Apply(row)
	}
	return row.Clone(), nil
}

func (t *transactionTable) Delete(_ context.Context, id int64) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	st := t.tx.state
	i, found := st.search(id)
	if !found {
		return transaction.ErrNotFound
	}
	st.transactions = append(st.transactions[:i], st.transactions[i+1:]...)
	return nil
}

func (t *transactionTable) DeleteAll(_ context.Context) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	t.tx.state.transactions = nil
	return nil
}

// SetNextID never moves the sequence below an id already in use.
func (t *transactionTable) SetNextID(_ context.Context, next int64) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	st := t.tx.state
	if last := len(st.transactions); last > 0 && st.transactions[last-1].ID >= next {
		next = st.transactions[last-1].ID + 1
	}
	if next < 1 {
		next = 1
	}
	st.nextID = next
	return nil
}
