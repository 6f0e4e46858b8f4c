package memory

import (
	"context"
	"sort"
	"time"

	"github.com/carson-networks/ledger-server/internal/storage/account"
)

type accountTable struct {
	tx *memTx
}

var _ account.IAccountWriter = (*accountTable)(nil)

func (a *accountTable) FindByName(_ context.Context, name string) (*account.Account, error) {
	acc, ok := a.tx.state.account(name)
	if !ok {
		return nil, account.ErrNotFound
	}
	return acc.Clone(), nil
}

func (a *accountTable) List(_ context.Context) ([]*account.Account, error) {
	result := make([]*account.Account, len(a.tx.state.accounts))
	for i, acc := range a.tx.state.accounts {
		result[i] = acc.Clone()
	}
	return result, nil
}

func (a *accountTable) Insert(_ context.Context, create *account.AccountCreate) (*account.Account, error) {
	if err := a.tx.writable(); err != nil {
		return nil, err
	}
	if _, exists := a.tx.state.account(create.Name); exists {
		return nil, account.ErrDuplicate
	}

	createdAt := create.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	acc := &account.Account{
		Name:            create.Name,
		Kind:            create.Kind,
		StartingBalance: create.StartingBalance,
		Balance:         create.StartingBalance,
		TransactionRefs: []int64{},
		CreatedAt:       createdAt,
	}
	a.append(acc)
	return acc.Clone(), nil
}

func (a *accountTable) Restore(_ context.Context, acc *account.Account) error {
	if err := a.tx.writable(); err != nil {
		return err
	}
	if _, exists := a.tx.state.account(acc.Name); exists {
		return account.ErrDuplicate
	}
	a.append(acc.Clone())
	return nil
}

func (a *accountTable) append(acc *account.Account) {
	st := a.tx.state
	st.index[acc.Name] = len(st.accounts)
	st.accounts = append(st.accounts, acc)
}

func (a *accountTable) AddTransactionRef(_ context.Context, name string, transactionID int64) error {
	acc, err := a.writableAccount(name)
	if err != nil {
		return err
	}
	refs := acc.TransactionRefs
	i := sort.Search(len(refs), func(i int) bool { return refs[i] >= transactionID })
	if i < len(refs) && refs[i] == transactionID {
		return nil
	}
	refs = append(refs, 0)
	copy(refs[i+1:], refs[i:])
	refs[i] = transactionID
	acc.TransactionRefs = refs
	return nil
}

func (a *accountTable) RemoveTransactionRef(_ context.Context, name string, transactionID int64) error {
	acc, err := a.writableAccount(name)
	if err != nil {
		return err
	}
	refs := acc.TransactionRefs[:0]
	for _, id := range acc.TransactionRefs {
		if id != transactionID {
			refs = append(refs, id)
		}
	}
	acc.TransactionRefs = refs
	return nil
}

func (a *accountTable) UpdateBalance(_ context.Context, name string, balance int64) error {
	acc, err := a.writableAccount(name)
	if err != nil {
		return err
	}
	acc.Balance = balance
	return nil
}

func (a *accountTable) DeleteAll(_ context.Context) error {
	if err := a.tx.writable(); err != nil {
		return err
	}
	a.tx.state.accounts = nil
	a.tx.state.index = make(map[string]int)
	return nil
}

func (a *accountTable) writableAccount(name string) (*account.Account, error) {
	if err := a.tx.writable(); err != nil {
		return nil, err
	}
	acc, ok := a.tx.state.account(name)
	if !ok {
		return nil, account.ErrNotFound
	}
	return acc, nil
}
