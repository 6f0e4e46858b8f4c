package balance

import (
	"context"
	"fmt"
	"sort"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

type IssueKind string

const (
	IssueBrokenReference     IssueKind = "broken_reference"
	IssueMissingReference    IssueKind = "missing_reference"
	IssueUnknownEndpoint     IssueKind = "unknown_endpoint"
	IssueCachedBalanceDrift  IssueKind = "cached_balance_drift"
	IssueStaleAvailableMoney IssueKind = "stale_available_money"
	IssueStaleSnapshot       IssueKind = "stale_snapshot"
)

type Issue struct {
	Kind          IssueKind `json:"kind"`
	Account       string    `json:"account,omitempty"`
	TransactionID int64     `json:"transactionId,omitempty"`
	Expected      int64     `json:"expected"`
	Actual        int64     `json:"actual"`
	Message       string    `json:"message"`
}

// Report lists every inconsistency found. Stale snapshots and stale
// available money are expected after edits and deletes; the other kinds mean
// the store itself is damaged.
type Report struct {
	Accounts     int     `json:"accounts"`
	Transactions int     `json:"transactions"`
	Issues       []Issue `json:"issues"`
}

// Consistent reports whether the ledger has no structural issues. Stale
// historical values do not count.
func (r *Report) Consistent() bool {
	for _, issue := range r.Issues {
		switch issue.Kind {
		case IssueStaleAvailableMoney, IssueStaleSnapshot:
		default:
			return false
		}
	}
	return true
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Verify checks refs against transactions, cached balances against the fold
// and replays history to find historical values that no longer match.
func (e *Engine) Verify(ctx context.Context, r *storage.Reader) (*Report, error) {
	accounts, err := r.Accounts.List(ctx)
	if err != nil {
		return nil, ledger.StorageFailure("account.List", err)
	}
	transactions, err := r.Transactions.List(ctx, nil)
	if err != nil {
		return nil, ledger.StorageFailure("transaction.List", err)
	}
	history := NewHistory(transactions)

	report := &Report{
		Accounts:     len(accounts),
		Transactions: len(transactions),
		Issues:       []Issue{},
	}

	byName := make(map[string]*account.Account, len(accounts))
	refSets := make(map[string]map[int64]bool, len(accounts))
	for _, a := range accounts {
		byName[a.Name] = a
		refs := make(map[int64]bool, len(a.TransactionRefs))
		for _, id := range a.TransactionRefs {
			refs[id] = true
			t, ok := history[id]
			if !ok || !t.Involves(a.Name) {
				report.add(Issue{
					Kind:          IssueBrokenReference,
					Account:       a.Name,
					TransactionID: id,
					Message:       fmt.Sprintf("account %q references transaction %d it is not part of", a.Name, id),
				})
			}
		}
		refSets[a.Name] = refs
	}

	for _, t := range transactions {
		for _, name := range []string{t.FromAccount, t.ToAccount} {
			refs, ok := refSets[name]
			if !ok {
				report.add(Issue{
					Kind:          IssueUnknownEndpoint,
					Account:       name,
					TransactionID: t.ID,
					Message:       fmt.Sprintf("transaction %d references unknown account %q", t.ID, name),
				})
				continue
			}
			if !refs[t.ID] {
				report.add(Issue{
					Kind:          IssueMissingReference,
					Account:       name,
					TransactionID: t.ID,
					Message:       fmt.Sprintf("account %q does not list transaction %d", name, t.ID),
				})
			}
		}
	}

	for _, a := range accounts {
		bal, err := e.ComputeBalance(a, history)
		if err != nil {
			continue
		}
		if bal != a.Balance {
			report.add(Issue{
				Kind:     IssueCachedBalanceDrift,
				Account:  a.Name,
				Expected: bal,
				Actual:   a.Balance,
				Message:  fmt.Sprintf("cached balance of %q is %d, history gives %d", a.Name, a.Balance, bal),
			})
		}
	}

	running := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		if a.Kind != account.KindReserved {
			running[a.Name] = a.StartingBalance
		}
	}
	pinned := func(name string) bool {
		a, ok := byName[name]
		return ok && a.Kind == account.KindReserved
	}

	for _, t := range transactions {
		if !pinned(t.FromAccount) {
			running[t.FromAccount] -= t.Amount
		}
		if !pinned(t.ToAccount) {
			running[t.ToAccount] += t.Amount
		}

		if expected := running[t.FromAccount]; expected != t.AvailableMoney {
			report.add(Issue{
				Kind:          IssueStaleAvailableMoney,
				Account:       t.FromAccount,
				TransactionID: t.ID,
				Expected:      expected,
				Actual:        t.AvailableMoney,
				Message:       fmt.Sprintf("transaction %d records available money %d, replay gives %d", t.ID, t.AvailableMoney, expected),
			})
		}

		names := make([]string, 0, len(t.AccountsBalance))
		for name := range t.AccountsBalance {
			if _, ok := byName[name]; ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			recorded := t.AccountsBalance[name]
			if expected := running[name]; expected != recorded {
				report.add(Issue{
					Kind:          IssueStaleSnapshot,
					Account:       name,
					TransactionID: t.ID,
					Expected:      expected,
					Actual:        recorded,
					Message:       fmt.Sprintf("snapshot of transaction %d records %q at %d, replay gives %d", t.ID, name, recorded, expected),
				})
			}
		}
	}

	return report, nil
}
