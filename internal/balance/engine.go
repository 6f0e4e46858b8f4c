package balance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// ErrBrokenReference is returned by a fold that meets a transaction ref which
// is missing from history or does not involve the account.
var ErrBrokenReference = errors.New("broken transaction reference")

// Engine is the only place that does balance arithmetic. A balance is always
// the fold of an account's history; the persisted Account.Balance is a cache
// the engine writes and Verify checks.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// History indexes transactions by id.
type History map[int64]*transaction.Transaction

func NewHistory(transactions []*transaction.Transaction) History {
	h := make(History, len(transactions))
	for _, t := range transactions {
		h[t.ID] = t
	}
	return h
}

// AccountBalance pairs an account with its recomputed balance.
type AccountBalance struct {
	Account *account.Account
	Balance int64
}

// TransferPlan is the validated outcome of a transfer that has not been
// written yet. Balances covers every account.
type TransferPlan struct {
	FromAccount    string
	ToAccount      string
	Amount         int64
	Balances       transaction.BalanceSnapshot
	AvailableMoney int64
}

// Metadata is the free-form part of a transfer.
type Metadata struct {
	Type      string
	Category  string
	Comment   string
	CreatedAt time.Time
}

// Fold replays the account's refs in ascending id order on top of its
// starting balance. Reserved accounts are not pinned here.
func (e *Engine) Fold(acct *account.Account, history History) (int64, error) {
	return fold(acct, history, 0)
}

// ComputeBalance is Fold with reserved accounts pinned to zero.
func (e *Engine) ComputeBalance(acct *account.Account, history History) (int64, error) {
	if acct.Kind == account.KindReserved {
		return 0, nil
	}
	return fold(acct, history, 0)
}

// BalanceAsOf replays history up to and including transaction id.
func (e *Engine) BalanceAsOf(acct *account.Account, history History, id int64) (int64, error) {
	if acct.Kind == account.KindReserved {
		return 0, nil
	}
	if id < 1 {
		return acct.StartingBalance, nil
	}
	return fold(acct, history, id)
}

func fold(acct *account.Account, history History, upTo int64) (int64, error) {
	refs := append([]int64(nil), acct.TransactionRefs...)
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })

	bal := acct.StartingBalance
	for _, id := range refs {
		if upTo > 0 && id > upTo {
			break
		}
		t, ok := history[id]
		if !ok || !t.Involves(acct.Name) {
			return 0, fmt.Errorf("%w: account %q, transaction %d", ErrBrokenReference, acct.Name, id)
		}
		if t.FromAccount == acct.Name {
			if bal, ok = addChecked(bal, -t.Amount); !ok {
				return 0, ledger.InvalidInput("balance of %q is out of range at transaction %d", acct.Name, id)
			}
		}
		if t.ToAccount == acct.Name {
			if bal, ok = addChecked(bal, t.Amount); !ok {
				return 0, ledger.InvalidInput("balance of %q is out of range at transaction %d", acct.Name, id)
			}
		}
	}
	return bal, nil
}

// addChecked adds delta to bal, reporting false when the result would not fit
// in an int64.
func addChecked(bal, delta int64) (int64, bool) {
	if (delta > 0 && bal > math.MaxInt64-delta) || (delta < 0 && bal < math.MinInt64-delta) {
		return 0, false
	}
	return bal + delta, true
}

// computeFailure keeps out of range errors as invalid input; anything else a
// fold returns means the stored history is damaged.
func computeFailure(err error) error {
	if errors.Is(err, ledger.ErrInvalidInput) {
		return err
	}
	return ledger.StorageFailure("balance.ComputeBalance", err)
}

// Balances recomputes every account balance, in account insertion order.
func (e *Engine) Balances(ctx context.Context, r *storage.Reader) ([]AccountBalance, error) {
	accounts, history, err := load(ctx, r)
	if err != nil {
		return nil, err
	}
	return e.balances(accounts, history)
}

func (e *Engine) balances(accounts []*account.Account, history History) ([]AccountBalance, error) {
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		bal, err := e.ComputeBalance(a, history)
		if err != nil {
			return nil, computeFailure(err)
		}
		out = append(out, AccountBalance{Account: a, Balance: bal})
	}
	return out, nil
}

// Snapshot turns a balance list into a name to balance map.
func Snapshot(balances []AccountBalance) transaction.BalanceSnapshot {
	snap := make(transaction.BalanceSnapshot, len(balances))
	for _, b := range balances {
		snap[b.Account.Name] = b.Balance
	}
	return snap
}

// PlanTransfer validates a transfer and computes the balance of every account
// right after it. Nothing is written.
func (e *Engine) PlanTransfer(ctx context.Context, r *storage.Reader, from, to string, amount int64) (*TransferPlan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ledger.ErrInvalidAmount, amount)
	}
	if len(from) == 0 || len(to) == 0 {
		return nil, ledger.InvalidInput("fromAccount and toAccount are required")
	}
	if from == to {
		return nil, ledger.InvalidInput("cannot transfer from %q to itself", from)
	}

	accounts, history, err := load(ctx, r)
	if err != nil {
		return nil, err
	}

	var fromAcct, toAcct *account.Account
	for _, a := range accounts {
		switch a.Name {
		case from:
			fromAcct = a
		case to:
			toAcct = a
		}
	}
	if fromAcct == nil {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnknownAccount, from)
	}
	if toAcct == nil {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnknownAccount, to)
	}

	balances, err := e.balances(accounts, history)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(balances)
	if fromAcct.Kind != account.KindReserved {
		bal, ok := addChecked(snap[from], -amount)
		if !ok {
			return nil, ledger.InvalidInput("balance of %q would be out of range", from)
		}
		snap[from] = bal
	}
	if toAcct.Kind != account.KindReserved {
		bal, ok := addChecked(snap[to], amount)
		if !ok {
			return nil, ledger.InvalidInput("balance of %q would be out of range", to)
		}
		snap[to] = bal
	}

	return &TransferPlan{
		FromAccount:    from,
		ToAccount:      to,
		Amount:         amount,
		Balances:       snap,
		AvailableMoney: snap[from],
	}, nil
}

// ApplyTransfer persists plan inside the caller's write transaction: the
// transaction record with its snapshot, both refs and both cached balances.
func (e *Engine) ApplyTransfer(ctx context.Context, w *storage.Writer, plan *TransferPlan, meta Metadata) (*transaction.Transaction, error) {
	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = e.now()
	}

	created, err := w.Transactions.Insert(ctx, &transaction.TransactionCreate{
		FromAccount:     plan.FromAccount,
		ToAccount:       plan.ToAccount,
		Amount:          plan.Amount,
		AvailableMoney:  plan.AvailableMoney,
		Type:            meta.Type,
		Category:        meta.Category,
		Comment:         meta.Comment,
		CreatedAt:       createdAt.UTC().Truncate(time.Microsecond),
		AccountsBalance: plan.Balances.Clone(),
	})
	if err != nil {
		return nil, ledger.StorageFailure("transaction.Insert", err)
	}

	for _, name := range []string{plan.FromAccount, plan.ToAccount} {
		if err := w.Accounts.AddTransactionRef(ctx, name, created.ID); err != nil {
			return nil, ledger.StorageFailure("account.AddTransactionRef", err)
		}
		if err := w.Accounts.UpdateBalance(ctx, name, plan.Balances[name]); err != nil {
			return nil, ledger.StorageFailure("account.UpdateBalance", err)
		}
	}
	return created, nil
}

// Refresh recomputes the cached balance of the named accounts from history.
// Unknown names are skipped.
func (e *Engine) Refresh(ctx context.Context, w *storage.Writer, names ...string) error {
	transactions, err := w.Transactions.List(ctx, nil)
	if err != nil {
		return ledger.StorageFailure("transaction.List", err)
	}
	history := NewHistory(transactions)

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		acct, err := w.Accounts.FindByName(ctx, name)
		if errors.Is(err, account.ErrNotFound) {
			continue
		}
		if err != nil {
			return ledger.StorageFailure("account.FindByName", err)
		}
		bal, err := e.ComputeBalance(acct, history)
		if err != nil {
			return computeFailure(err)
		}
		if err := w.Accounts.UpdateBalance(ctx, name, bal); err != nil {
			return ledger.StorageFailure("account.UpdateBalance", err)
		}
	}
	return nil
}

func load(ctx context.Context, r *storage.Reader) ([]*account.Account, History, error) {
	accounts, err := r.Accounts.List(ctx)
	if err != nil {
		return nil, nil, ledger.StorageFailure("account.List", err)
	}
	transactions, err := r.Transactions.List(ctx, nil)
	if err != nil {
		return nil, nil, ledger.StorageFailure("transaction.List", err)
	}
	return accounts, NewHistory(transactions), nil
}
