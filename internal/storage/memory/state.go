package memory

import (
	"fmt"
	"sort"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type state struct {
	accounts     []*account.Account
	index        map[string]int
	transactions []*transaction.Transaction // ascending id
	nextID       int64
}

func newState() *state {
	return &state{
		index:  make(map[string]int),
		nextID: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:     make([]*account.Account, len(s.accounts)),
		index:        make(map[string]int, len(s.index)),
		transactions: make([]*transaction.Transaction, len(s.transactions)),
		nextID:       s.nextID,
	}
	for i, a := range s.accounts {
		c.accounts[i] = a.Clone()
		c.index[a.Name] = i
	}
	for i, t := range s.transactions {
		c.transactions[i] = t.Clone()
	}
	return c
}

func (s *state) account(name string) (*account.Account, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.accounts[i], true
}

// search returns the position of id, or where it would be inserted.
func (s *state) search(id int64) (int, bool) {
	i := sort.Search(len(s.transactions), func(i int) bool {
		return s.transactions[i].ID >= id
	})
	return i, i < len(s.transactions) && s.transactions[i].ID == id
}

func (s *state) dump() *storage.Dump {
	d := &storage.Dump{
		Accounts:          make([]*account.Account, len(s.accounts)),
		Transactions:      make([]*transaction.Transaction, len(s.transactions)),
		NextTransactionID: s.nextID,
	}
	for i, a := range s.accounts {
		d.Accounts[i] = a.Clone()
	}
	for i, t := range s.transactions {
		d.Transactions[i] = t.Clone()
	}
	return d
}

func stateFromDump(d *storage.Dump) (*state, error) {
	s := newState()
	for _, a := range d.Accounts {
		if _, exists := s.index[a.Name]; exists {
			return nil, fmt.Errorf("duplicate account %q", a.Name)
		}
		s.index[a.Name] = len(s.accounts)
		s.accounts = append(s.accounts, a.Clone())
	}
	for _, t := range d.Transactions {
		i, found := s.search(t.ID)
		if found {
			return nil, fmt.Errorf("duplicate transaction %d", t.ID)
		}
		s.insertAt(i, t.Clone())
	}
	s.nextID = d.NextTransactionID
	if last := len(s.transactions); last > 0 && s.transactions[last-1].ID >= s.nextID {
		s.nextID = s.transactions[last-1].ID + 1
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	return s, nil
}

func (s *state) insertAt(i int, t *transaction.Transaction) {
	s.transactions = append(s.transactions, nil)
	copy(s.transactions[i+1:], s.transactions[i:])
	s.transactions[i] = t
}
