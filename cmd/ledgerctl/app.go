package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/backends"
	"github.com/carson-networks/ledger-server/internal/storage/postgres"
)

// session is one opened ledger: storage, write queue and service.
type session struct {
	storage   *storage.Storage
	delegator *operator.OperatorDelegator
	svc       *service.Service
}

func (s *session) close() {
	s.delegator.Stop()
	_ = s.storage.Close()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	env, err := config.ProcessEnvironmentVariables()
	if err != nil {
		return nil, err
	}
	if c.IsSet("backend") {
		env.Backend = c.String("backend")
	}
	if c.IsSet("data-file") {
		env.DataFile = c.String("data-file")
	}
	logging.SetupLogging(c.String("log-level"))
	return env, nil
}

func open(c *cli.Context) (*session, error) {
	env, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	backend, err := backends.Open(c.Context, env)
	if err != nil {
		return nil, err
	}

	store := storage.NewStorage(backend)
	delegator := operator.NewOperatorDelegator(store, 1)
	delegator.Start()

	// The CLI publishes nowhere; events are for the server's feed.
	svc := service.NewService(store, delegator, balance.NewEngine(), nil)
	s := &session{storage: store, delegator: delegator, svc: svc}
	if err := svc.Ledger.Bootstrap(c.Context); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func withSession(fn func(c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := open(c)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(c, s)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "ledgerctl",
		Usage:  "inspect and maintain a ledger store",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Usage: "postgres, memory or file", EnvVars: []string{"LEDGER_BACKEND"}},
			&cli.StringFlag{Name: "data-file", Usage: "JSON file for the file backend", EnvVars: []string{"LEDGER_DATA_FILE"}},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Commands: []*cli.Command{
			{
				Name:   "accounts",
				Usage:  "list accounts with recomputed balances",
				Action: withSession(listAccounts),
			},
			{
				Name:      "create-account",
				Usage:     "create an account",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "start", Usage: "starting balance"},
				},
				Action: withSession(createAccount),
			},
			{
				Name:  "transactions",
				Usage: "list transactions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "position"},
					&cli.IntFlag{Name: "limit", Usage: "page size, 0 lists everything"},
				},
				Action: withSession(listTransactions),
			},
			{
				Name:  "transfer",
				Usage: "move an amount between two accounts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Required: true},
					&cli.StringFlag{Name: "to", Required: true},
					&cli.Int64Flag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "comment"},
				},
				Action: withSession(transfer),
			},
			{
				Name:      "export",
				Usage:     "write the ledger as JSON to a file or stdout",
				ArgsUsage: "[file]",
				Action:    withSession(exportLedger),
			},
			{
				Name:      "import",
				Usage:     "replace the ledger with an exported JSON file",
				ArgsUsage: "<file>",
				Action:    withSession(importLedger),
			},
			{
				Name:  "clear",
				Usage: "delete every account and transaction",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm"},
				},
				Action: withSession(clearLedger),
			},
			{
				Name:   "verify",
				Usage:  "check refs, cached balances and snapshots",
				Action: withSession(verifyLedger),
			},
			{
				Name:   "migrate",
				Usage:  "apply postgres schema migrations",
				Action: migrate,
			},
		},
	}
}

func listAccounts(c *cli.Context, s *session) error {
	accounts, err := s.svc.Account.ListAccounts(c.Context)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBALANCE\tSTART\tTRANSACTIONS")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", a.Name, a.Balance, a.StartingBalance, a.TransactionCount)
	}
	return w.Flush()
}

func createAccount(c *cli.Context, s *session) error {
	if c.NArg() != 1 {
		return errors.New("create-account takes exactly one name")
	}
	a, err := s.svc.Account.CreateAccount(c.Context, c.Args().First(), c.Int64("start"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created %s with balance %d\n", a.Name, a.Balance)
	return nil
}

func listTransactions(c *cli.Context, s *session) error {
	var cursor *service.TransactionCursor
	if c.IsSet("limit") || c.IsSet("position") {
		cursor = &service.TransactionCursor{Position: c.Int("position"), Limit: c.Int("limit")}
	}
	transactions, next, err := s.svc.Transaction.ListTransactions(c.Context, cursor)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tTO\tAMOUNT\tAVAILABLE\tCATEGORY\tCREATED")
	for _, t := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			t.ID, t.FromAccount, t.ToAccount, t.Amount, t.AvailableMoney, t.Category, t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if next != nil {
		fmt.Fprintf(c.App.Writer, "next page: --position %d --limit %d\n", next.Position, next.Limit)
	}
	return nil
}

func transfer(c *cli.Context, s *session) error {
	detail, err := s.svc.Transaction.Transfer(c.Context, service.TransferRequest{
		FromAccount: c.String("from"),
		ToAccount:   c.String("to"),
		Amount:      c.Int64("amount"),
		Type:        c.String("type"),
		Category:    c.String("category"),
		Comment:     c.String("comment"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "transaction %d: %s -> %s %d, %s now %d\n",
		detail.Transaction.ID, detail.Transaction.FromAccount, detail.Transaction.ToAccount,
		detail.Transaction.Amount, detail.Transaction.FromAccount, detail.Transaction.AvailableMoney)
	return nil
}

func exportLedger(c *cli.Context, s *session) error {
	dump, err := s.svc.Ledger.ExportLedger(c.Context)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.NArg() > 0 {
		f, err := os.Create(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

func importLedger(c *cli.Context, s *session) error {
	if c.NArg() != 1 {
		return errors.New("import takes exactly one file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	var dump storage.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("decode %s: %w", c.Args().First(), err)
	}
	if err := s.svc.Ledger.ImportLedger(c.Context, &dump); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "imported %d accounts and %d transactions\n", len(dump.Accounts), len(dump.Transactions))
	return nil
}

func clearLedger(c *cli.Context, s *session) error {
	if !c.Bool("yes") {
		return errors.New("clear deletes everything; pass --yes to confirm")
	}
	if err := s.svc.Ledger.ClearLedger(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "ledger cleared")
	return nil
}

func verifyLedger(c *cli.Context, s *session) error {
	report, err := s.svc.Ledger.VerifyLedger(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%d accounts, %d transactions, %d issues\n", report.Accounts, report.Transactions, len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(c.App.Writer, "  %s: %s\n", issue.Kind, issue.Message)
	}
	if !report.Consistent() {
		return errors.New("ledger is inconsistent")
	}
	return nil
}

func migrate(c *cli.Context) error {
	env, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", postgres.ConnectionString(env))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return err
	}
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "migrations applied")
	return nil
}
