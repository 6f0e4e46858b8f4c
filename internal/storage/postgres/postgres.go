package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Backend stores the ledger in PostgreSQL through bob.
type Backend struct {
	db  *sql.DB
	bob bob.DB
}

var _ storage.Backend = (*Backend)(nil)

func ConnectionString(env *config.Config) string {
	return "postgres://" + env.PostgresUsername + ":" +
		env.PostgresPassword + "@" + env.PostgresAddress + ":" +
		env.PostgresPort + "/" + env.PostgresDB + "?sslmode=disable"
}

// Open connects, pings and, when configured, migrates the schema.
func Open(ctx context.Context, env *config.Config) (*Backend, error) {
	db, err := sql.Open("postgres", ConnectionString(env))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if env.AutoMigrate {
		if err := Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return New(db), nil
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db, bob: bob.NewDB(db)}
}

// Begin opens a database transaction. Reads run REPEATABLE READ so every
// query of one Read call sees the same snapshot.
func (b *Backend) Begin(ctx context.Context, readOnly bool) (storage.Tx, error) {
	opts := &sql.TxOptions{}
	if readOnly {
		opts = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
	}
	tx, err := b.bob.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &pgTx{
		tx:           tx,
		accounts:     account.NewWriter(tx),
		transactions: transaction.NewWriter(tx),
	}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

type pgTx struct {
	tx           bob.Tx
	accounts     *account.Writer
	transactions *transaction.Writer
}

func (t *pgTx) Accounts() account.IAccountWriter {
	return t.accounts
}

func (t *pgTx) Transactions() transaction.ITransactionWriter {
	return t.transactions
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
