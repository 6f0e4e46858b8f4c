package balance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type seedAccount struct {
	name  string
	start int64
}

func newLedger(t *testing.T, backend storage.Backend, accounts ...seedAccount) *storage.Storage {
	t.Helper()
	ctx := context.Background()
	s := storage.NewStorage(backend)

	w, err := s.Write(ctx)
	require.NoError(t, err)
	for _, name := range ledger.ReservedNames {
		_, err := w.Accounts.Insert(ctx, &account.AccountCreate{Name: name, Kind: account.KindReserved})
		require.NoError(t, err)
	}
	for _, a := range accounts {
		_, err := w.Accounts.Insert(ctx, &account.AccountCreate{Name: a.name, StartingBalance: a.start})
		require.NoError(t, err)
	}
	require.NoError(t, w.Commit(ctx))
	return s
}

func transfer(t *testing.T, e *Engine, s *storage.Storage, from, to string, amount int64) (*transaction.Transaction, error) {
	t.Helper()
	ctx := context.Background()

	w, err := s.Write(ctx)
	require.NoError(t, err)
	defer func() {
		_ = w.Rollback(ctx)
	}()

	plan, err := e.PlanTransfer(ctx, w.Reader(), from, to, amount)
	if err != nil {
		return nil, err
	}
	created, err := e.ApplyTransfer(ctx, w, plan, Metadata{Type: "expense", Category: "food"})
	if err != nil {
		return nil, err
	}
	return created, w.Commit(ctx)
}

func balancesOf(t *testing.T, e *Engine, s *storage.Storage) map[string]int64 {
	t.Helper()
	var out map[string]int64
	err := s.Read(context.Background(), func(r *storage.Reader) error {
		balances, err := e.Balances(context.Background(), r)
		if err != nil {
			return err
		}
		out = Snapshot(balances)
		return nil
	})
	require.NoError(t, err)
	return out
}

func dump(t *testing.T, s *storage.Storage) *storage.Dump {
	t.Helper()
	var d *storage.Dump
	err := s.Read(context.Background(), func(r *storage.Reader) error {
		var err error
		d, err = storage.ExportDump(context.Background(), r)
		return err
	})
	require.NoError(t, err)
	return d
}

func TestTransfer_WalletToIncome(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"Wallet", 100})

	created, err := transfer(t, e, s, "Wallet", ledger.Income, 30)

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(70), created.AvailableMoney)
	assert.Equal(t, "expense", created.Type)
	assert.Equal(t, "food", created.Category)
	assert.Equal(t, transaction.BalanceSnapshot{"Income": 0, "Expense": 0, "Wallet": 70}, created.AccountsBalance)

	balances := balancesOf(t, e, s)
	assert.Equal(t, int64(70), balances["Wallet"])
	assert.Equal(t, int64(0), balances[ledger.Income], "reserved accounts are pinned")
}

func TestTransfer_UnknownAccount(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"Wallet", 100})
	before := dump(t, s)

	_, err := transfer(t, e, s, "Ghost", "Wallet", 10)
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)

	_, err = transfer(t, e, s, "Wallet", "Ghost", 10)
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)

	assert.Equal(t, before, dump(t, s))
}

func TestTransfer_InvalidInput(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"Wallet", 100}, seedAccount{"Bank", 0})

	tests := []struct {
		name     string
		from, to string
		amount   int64
		isAmount bool
	}{
		{name: "zero amount", from: "Wallet", to: "Bank", amount: 0, isAmount: true},
		{name: "negative amount", from: "Wallet", to: "Bank", amount: -5, isAmount: true},
		{name: "same account", from: "Wallet", to: "Wallet", amount: 5},
		{name: "missing endpoint", from: "", to: "Bank", amount: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transfer(t, e, s, tt.from, tt.to, tt.amount)
			assert.ErrorIs(t, err, ledger.ErrInvalidInput)
			assert.Equal(t, tt.isAmount, errors.Is(err, ledger.ErrInvalidAmount))
		})
	}

	assert.Empty(t, dump(t, s).Transactions)
}

func TestTransfer_TwoAccountsRoundTrip(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 50}, seedAccount{"B", 0})

	first, err := transfer(t, e, s, "A", "B", 20)
	require.NoError(t, err)
	second, err := transfer(t, e, s, "B", "A", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(30), first.AvailableMoney)
	assert.Equal(t, int64(15), second.AvailableMoney)

	balances := balancesOf(t, e, s)
	assert.Equal(t, int64(35), balances["A"])
	assert.Equal(t, int64(15), balances["B"])

	d := dump(t, s)
	require.Len(t, d.Transactions, 2)
	assert.Equal(t, int64(1), d.Transactions[0].ID)
	assert.Equal(t, int64(2), d.Transactions[1].ID)
	for _, a := range d.Accounts {
		assert.Equal(t, balances[a.Name], a.Balance, "cached balance of %s", a.Name)
	}
}

func TestTransfer_OnlyEndpointsChange(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 10}, seedAccount{"B", 20}, seedAccount{"C", 30})

	before := balancesOf(t, e, s)
	_, err := transfer(t, e, s, "C", "A", 12)
	require.NoError(t, err)
	after := balancesOf(t, e, s)

	assert.Equal(t, before["A"]+12, after["A"])
	assert.Equal(t, before["C"]-12, after["C"])
	assert.Equal(t, before["B"], after["B"])
	assert.Equal(t, before[ledger.Expense], after[ledger.Expense])
}

func TestFold_MatchesSumOfDeltas(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 100}, seedAccount{"B", -20})

	moves := []struct {
		from, to string
		amount   int64
	}{
		{"A", "B", 30}, {ledger.Income, "A", 500}, {"B", ledger.Expense, 7}, {"B", "A", 3}, {"A", ledger.Expense, 41},
	}
	for _, m := range moves {
		_, err := transfer(t, e, s, m.from, m.to, m.amount)
		require.NoError(t, err)
	}

	d := dump(t, s)
	history := NewHistory(d.Transactions)
	for _, a := range d.Accounts {
		expected := a.StartingBalance
		for _, tr := range d.Transactions {
			if tr.ToAccount == a.Name {
				expected += tr.Amount
			}
			if tr.FromAccount == a.Name {
				expected -= tr.Amount
			}
		}
		folded, err := e.Fold(a, history)
		require.NoError(t, err)
		assert.Equal(t, expected, folded, "fold of %s\n%s", a.Name, spew.Sdump(d))
	}

	income, err := e.Fold(d.Accounts[0], history)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), income, "raw fold ignores pinning")
	pinned, err := e.ComputeBalance(d.Accounts[0], history)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pinned)
}

func TestAvailableMoney_MatchesReplay(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 100}, seedAccount{"B", 0})

	for _, m := range [][2]string{{"A", "B"}, {"B", "A"}, {"A", "B"}, {"A", ledger.Expense}} {
		_, err := transfer(t, e, s, m[0], m[1], 10)
		require.NoError(t, err)
	}

	d := dump(t, s)
	history := NewHistory(d.Transactions)
	byName := map[string]*account.Account{}
	for _, a := range d.Accounts {
		byName[a.Name] = a
	}
	for _, tr := range d.Transactions {
		replayed, err := e.BalanceAsOf(byName[tr.FromAccount], history, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, replayed, tr.AvailableMoney, "transaction %d", tr.ID)
		assert.Equal(t, replayed, tr.AccountsBalance[tr.FromAccount])
	}
}

func TestBalanceAsOf(t *testing.T) {
	e := NewEngine()
	history := History{
		1: {ID: 1, FromAccount: "A", ToAccount: "B", Amount: 10},
		2: {ID: 2, FromAccount: "B", ToAccount: "A", Amount: 4},
		4: {ID: 4, FromAccount: "A", ToAccount: "B", Amount: 1},
	}
	a := &account.Account{Name: "A", StartingBalance: 50, TransactionRefs: []int64{4, 1, 2}}

	for id, expected := range map[int64]int64{0: 50, 1: 40, 2: 44, 3: 44, 4: 43, 10: 43} {
		got, err := e.BalanceAsOf(a, history, id)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "as of %d", id)
	}

	reserved := &account.Account{Name: ledger.Income, Kind: account.KindReserved, TransactionRefs: []int64{1}}
	got, err := e.BalanceAsOf(reserved, history, 1)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFold_BrokenReference(t *testing.T) {
	e := NewEngine()
	history := History{1: {ID: 1, FromAccount: "B", ToAccount: "C", Amount: 10}}

	_, err := e.Fold(&account.Account{Name: "A", TransactionRefs: []int64{1}}, history)
	assert.ErrorIs(t, err, ErrBrokenReference)

	_, err = e.ComputeBalance(&account.Account{Name: "A", TransactionRefs: []int64{9}}, history)
	assert.ErrorIs(t, err, ErrBrokenReference)
}

func TestFold_OutOfRange(t *testing.T) {
	e := NewEngine()
	history := History{1: {ID: 1, FromAccount: "B", ToAccount: "Rich", Amount: 1}}

	_, err := e.Fold(&account.Account{Name: "Rich", StartingBalance: math.MaxInt64, TransactionRefs: []int64{1}}, history)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrBrokenReference)

	_, err = e.Fold(&account.Account{Name: "B", StartingBalance: math.MinInt64, TransactionRefs: []int64{1}}, history)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestTransfer_OutOfRange(t *testing.T) {
	e := NewEngine()
	s := newLedger(t, memory.New(),
		seedAccount{"Rich", math.MaxInt64},
		seedAccount{"Poor", math.MinInt64},
		seedAccount{"B", 10},
	)
	before := dump(t, s)

	_, err := transfer(t, e, s, "B", "Rich", 1)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.NotErrorIs(t, err, ledger.ErrStorageFailure)

	_, err = transfer(t, e, s, "Poor", "B", 1)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	assert.Equal(t, before, dump(t, s))
	assert.Equal(t, int64(math.MaxInt64), balancesOf(t, e, s)["Rich"])

	// Spending from the top of the range still works.
	created, err := transfer(t, e, s, "Rich", "B", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), created.AvailableMoney)
}

func TestRefresh_AfterDelete(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 50}, seedAccount{"B", 0})

	_, err := transfer(t, e, s, "A", "B", 20)
	require.NoError(t, err)
	_, err = transfer(t, e, s, "B", "A", 5)
	require.NoError(t, err)

	w, err := s.Write(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Transactions.Delete(ctx, 1))
	require.NoError(t, w.Accounts.RemoveTransactionRef(ctx, "A", 1))
	require.NoError(t, w.Accounts.RemoveTransactionRef(ctx, "B", 1))
	require.NoError(t, e.Refresh(ctx, w, "A", "B", "A", "Ghost"))
	require.NoError(t, w.Commit(ctx))

	d := dump(t, s)
	cached := map[string]int64{}
	for _, a := range d.Accounts {
		cached[a.Name] = a.Balance
	}
	assert.Equal(t, int64(55), cached["A"])
	assert.Equal(t, int64(-5), cached["B"])
	assert.Equal(t, cached["A"], balancesOf(t, e, s)["A"])
}

type failingAccounts struct {
	account.IAccountWriter
}

func (f failingAccounts) AddTransactionRef(context.Context, string, int64) error {
	return errors.New("disk full")
}

type failingTx struct {
	storage.Tx
}

func (f failingTx) Accounts() account.IAccountWriter {
	return failingAccounts{f.Tx.Accounts()}
}

type failingBackend struct {
	*memory.Store
	fail bool
}

func (f *failingBackend) Begin(ctx context.Context, readOnly bool) (storage.Tx, error) {
	tx, err := f.Store.Begin(ctx, readOnly)
	if err != nil || !f.fail || readOnly {
		return tx, err
	}
	return failingTx{tx}, nil
}

func TestApplyTransfer_FailureLeavesNoPartialState(t *testing.T) {
	e := NewEngine()
	backend := &failingBackend{Store: memory.New()}
	s := newLedger(t, backend, seedAccount{"A", 50}, seedAccount{"B", 0})
	before := dump(t, s)

	backend.fail = true
	_, err := transfer(t, e, s, "A", "B", 20)

	assert.ErrorIs(t, err, ledger.ErrStorageFailure)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, before, dump(t, s), "rolled back")
}

func TestApplyTransfer_KeepsExplicitCreatedAt(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	s := newLedger(t, memory.New(), seedAccount{"A", 50}, seedAccount{"B", 0})
	at := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("CET", 3600))

	w, err := s.Write(ctx)
	require.NoError(t, err)
	plan, err := e.PlanTransfer(ctx, w.Reader(), "A", "B", 1)
	require.NoError(t, err)
	created, err := e.ApplyTransfer(ctx, w, plan, Metadata{Comment: "late entry", CreatedAt: at})
	require.NoError(t, err)
	require.NoError(t, w.Commit(ctx))

	assert.True(t, created.CreatedAt.Equal(at.Truncate(time.Microsecond)))
	assert.Equal(t, time.UTC, created.CreatedAt.Location())
	assert.Equal(t, "late entry", created.Comment)
}
