package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

type Writer struct {
	tx bob.Tx
	Reader
}

var _ ITransactionWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// Insert creates a new transaction and returns it with its assigned id.
func (w *Writer) Insert(ctx context.Context, create *TransactionCreate) (*Transaction, error) {
	createdAt := create.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := psql.Insert(
		im.Into("transactions",
			"from_account", "to_account", "amount", "available_money",
			"type", "category", "comment", "created_at", "accounts_balance",
		),
		im.Values(
			psql.Arg(create.FromAccount),
			psql.Arg(create.ToAccount),
			psql.Arg(create.Amount),
			psql.Arg(create.AvailableMoney),
			psql.Arg(create.Type),
			psql.Arg(create.Category),
			psql.Arg(create.Comment),
			psql.Arg(createdAt),
			psql.Arg(create.AccountsBalance),
		),
		im.Returning(transactionColumns...),
	)
	row, err := bob.One(ctx, w.tx, query, scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, err
	}
	return rowToTransaction(&row), nil
}

// Restore inserts a complete record keeping its original id.
func (w *Writer) Restore(ctx context.Context, t *Transaction) error {
	query := psql.Insert(
		im.Into("transactions",
			"id", "from_account", "to_account", "amount", "available_money",
			"type", "category", "comment", "created_at", "accounts_balance",
		),
		im.Values(
			psql.Arg(t.ID),
			psql.Arg(t.FromAccount),
			psql.Arg(t.ToAccount),
			psql.Arg(t.Amount),
			psql.Arg(t.AvailableMoney),
			psql.Arg(t.Type),
			psql.Arg(t.Category),
			psql.Arg(t.Comment),
			psql.Arg(t.CreatedAt),
			psql.Arg(t.AccountsBalance),
		),
	)
	_, err := bob.Exec(ctx, w.tx, query)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (w *Writer) Update(ctx context.Context, id int64, update *TransactionUpdate) (*Transaction, error) {
	if update == nil || update.IsEmpty() {
		return w.FindByID(ctx, id)
	}

	queryMods := []bob.Mod[*dialect.UpdateQuery]{um.Table("transactions")}
	if v, ok := update.FromAccount.Get(); ok {
		queryMods = append(queryMods, um.SetCol("from_account").ToArg(v))
	}
	if v, ok := update.ToAccount.Get(); ok {
		queryMods = append(queryMods, um.SetCol("to_account").ToArg(v))
	}
	if v, ok := update.Amount.Get(); ok {
		queryMods = append(queryMods, um.SetCol("amount").ToArg(v))
	}
	if v, ok := update.Type.Get(); ok {
		queryMods = append(queryMods, um.SetCol("type").ToArg(v))
	}
	if v, ok := update.Category.Get(); ok {
		queryMods = append(queryMods, um.SetCol("category").ToArg(v))
	}
	if v, ok := update.Comment.Get(); ok {
		queryMods = append(queryMods, um.SetCol("comment").ToArg(v))
	}
	if v, ok := update.CreatedAt.Get(); ok {
		queryMods = append(queryMods, um.SetCol("created_at").ToArg(v))
	}
	queryMods = append(queryMods,
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Returning(transactionColumns...),
	)

	rows, err := bob.All(ctx, w.tx, psql.Update(queryMods...), scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rowToTransaction(&rows[0]), nil
}

func (w *Writer) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(
		dm.From("transactions"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, w.tx, query)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (w *Writer) DeleteAll(ctx context.Context) error {
	_, err := bob.Exec(ctx, w.tx, psql.Delete(dm.From("transactions")))
	return err
}

// SetNextID moves the id sequence so the next Insert receives next, never
// below an id already in use.
func (w *Writer) SetNextID(ctx context.Context, next int64) error {
	query := psql.RawQuery(
		"SELECT setval('transactions_id_seq', GREATEST(?::bigint, COALESCE((SELECT max(id) FROM transactions), 0) + 1, 1), false)",
		next,
	)
	_, err := bob.Exec(ctx, w.tx, query)
	return err
}
