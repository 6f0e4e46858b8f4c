package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

func startPostgres(t *testing.T) *storage.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("testpassword"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	s := storage.NewStorage(New(db))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func process(t *testing.T, d *operator.OperatorDelegator, action actions.IAction) {
	t.Helper()
	require.NoError(t, d.Process(context.Background(), action))
}

func exportJSON(t *testing.T, s *storage.Storage) string {
	t.Helper()
	var dump *storage.Dump
	require.NoError(t, s.Read(context.Background(), func(r *storage.Reader) error {
		var err error
		dump, err = storage.ExportDump(context.Background(), r)
		return err
	}))
	raw, err := json.Marshal(dump)
	require.NoError(t, err)
	return string(raw)
}

func TestPostgres_LedgerFlow(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	engine := balance.NewEngine()
	d := operator.NewOperatorDelegator(s, 2)
	d.Start()
	t.Cleanup(d.Stop)

	process(t, d, &actions.EnsureReserved{})
	process(t, d, &actions.CreateAccount{Name: "A", StartingBalance: 100})
	process(t, d, &actions.CreateAccount{Name: "B"})

	err := d.Process(ctx, &actions.CreateAccount{Name: "A"})
	assert.Error(t, err, "duplicate account")

	first := &actions.Transfer{Engine: engine, FromAccount: "A", ToAccount: "B", Amount: 30}
	process(t, d, first)
	process(t, d, &actions.Transfer{Engine: engine, FromAccount: "Income", ToAccount: "A", Amount: 50})
	process(t, d, &actions.Transfer{Engine: engine, FromAccount: "B", ToAccount: "Expense", Amount: 10})

	require.NotNil(t, first.Result)
	assert.Equal(t, int64(1), first.Result.ID)
	assert.Equal(t, int64(70), first.Result.AvailableMoney)
	assert.Equal(t, transaction.BalanceSnapshot{"Income": 0, "Expense": 0, "A": 70, "B": 30}, first.Result.AccountsBalance)

	var balances map[string]int64
	var refs map[string][]int64
	require.NoError(t, s.Read(ctx, func(r *storage.Reader) error {
		all, err := engine.Balances(ctx, r)
		if err != nil {
			return err
		}
		balances = map[string]int64{}
		for _, b := range all {
			balances[b.Account.Name] = b.Balance
		}
		accounts, err := r.Accounts.List(ctx)
		refs = map[string][]int64{}
		for _, a := range accounts {
			refs[a.Name] = a.TransactionRefs
		}
		return err
	}))
	assert.Equal(t, map[string]int64{"Income": 0, "Expense": 0, "A": 120, "B": 20}, balances, spew.Sdump(balances))
	assert.Equal(t, []int64{1, 2}, refs["A"])
	assert.Equal(t, []int64{1, 3}, refs["B"])

	process(t, d, &actions.DeleteTransaction{Engine: engine, ID: 2})
	process(t, d, &actions.Transfer{Engine: engine, FromAccount: "A", ToAccount: "B", Amount: 5})

	var report *balance.Report
	var page []*transaction.Transaction
	require.NoError(t, s.Read(ctx, func(r *storage.Reader) error {
		var err error
		report, err = engine.Verify(ctx, r)
		if err != nil {
			return err
		}
		page, err = r.Transactions.List(ctx, &transaction.TransactionFilter{Limit: 2, Offset: 0})
		return err
	}))
	assert.True(t, report.Consistent(), spew.Sdump(report.Issues))
	require.Len(t, page, 3, "list returns one extra row to signal a next page")
	assert.Equal(t, int64(4), page[2].ID, "deleted ids are not reused")
}

func TestPostgres_ExportImportRoundTrip(t *testing.T) {
	s := startPostgres(t)
	engine := balance.NewEngine()
	d := operator.NewOperatorDelegator(s, 1)
	d.Start()
	t.Cleanup(d.Stop)

	process(t, d, &actions.EnsureReserved{})
	process(t, d, &actions.CreateAccount{Name: "Wallet", StartingBalance: 200})
	process(t, d, &actions.CreateAccount{Name: "Card", StartingBalance: -50})
	process(t, d, &actions.Transfer{
		Engine:      engine,
		FromAccount: "Wallet",
		ToAccount:   "Card",
		Amount:      50,
		Metadata:    balance.Metadata{Category: "bills", Comment: "pay off", CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
	})

	before := exportJSON(t, s)

	var dump storage.Dump
	require.NoError(t, json.Unmarshal([]byte(before), &dump))

	process(t, d, &actions.ClearLedger{})
	assert.NotEqual(t, before, exportJSON(t, s))

	process(t, d, &actions.ImportLedger{Dump: &dump})
	assert.JSONEq(t, before, exportJSON(t, s))

	// The sequence continues after the imported ids.
	next := &actions.Transfer{Engine: engine, FromAccount: "Card", ToAccount: "Wallet", Amount: 1}
	process(t, d, next)
	assert.Equal(t, dump.NextTransactionID, next.Result.ID)

	var wallet *account.Account
	require.NoError(t, s.Read(context.Background(), func(r *storage.Reader) error {
		var err error
		wallet, err = r.Accounts.FindByName(context.Background(), "Wallet")
		return err
	}))
	assert.Equal(t, int64(151), wallet.Balance)
}
