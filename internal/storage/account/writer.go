package account

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const uniqueViolation = "23505"

type Writer struct {
	tx bob.Tx
	Reader
}

var _ IAccountWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

func (w *Writer) Insert(ctx context.Context, create *AccountCreate) (*Account, error) {
	createdAt := create.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := psql.Insert(
		im.Into("accounts", "name", "kind", "starting_balance", "balance", "created_at"),
		im.Values(
			psql.Arg(create.Name),
			psql.Arg(int16(create.Kind)),
			psql.Arg(create.StartingBalance),
			psql.Arg(create.StartingBalance),
			psql.Arg(createdAt),
		),
		im.Returning(accountColumns...),
	)
	row, err := bob.One(ctx, w.tx, query, scan.StructMapper[accountRow]())
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return rowToAccount(&row), nil
}

// Restore inserts a complete account record, refs and cached balance included.
func (w *Writer) Restore(ctx context.Context, account *Account) error {
	refs := account.TransactionRefs
	if refs == nil {
		refs = []int64{}
	}
	query := psql.Insert(
		im.Into("accounts", "name", "kind", "starting_balance", "balance", "transaction_refs", "created_at"),
		im.Values(
			psql.Arg(account.Name),
			psql.Arg(int16(account.Kind)),
			psql.Arg(account.StartingBalance),
			psql.Arg(account.Balance),
			psql.Arg(pq.Int64Array(refs)),
			psql.Arg(account.CreatedAt),
		),
	)
	_, err := bob.Exec(ctx, w.tx, query)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// AddTransactionRef inserts the id keeping the ref list ascending and unique.
func (w *Writer) AddTransactionRef(ctx context.Context, name string, transactionID int64) error {
	return w.updateRefs(ctx, name, psql.Raw(
		"array(SELECT DISTINCT r FROM unnest(array_append(transaction_refs, ?::bigint)) AS r ORDER BY r)",
		transactionID,
	))
}

func (w *Writer) RemoveTransactionRef(ctx context.Context, name string, transactionID int64) error {
	return w.updateRefs(ctx, name, psql.Raw("array_remove(transaction_refs, ?::bigint)", transactionID))
}

func (w *Writer) updateRefs(ctx context.Context, name string, refs bob.Expression) error {
	query := psql.Update(
		um.Table("accounts"),
		um.SetCol("transaction_refs").To(refs),
		um.Where(psql.Quote("name").EQ(psql.Arg(name))),
	)
	return execOne(ctx, w.tx, query)
}

func (w *Writer) UpdateBalance(ctx context.Context, name string, balance int64) error {
	query := psql.Update(
		um.Table("accounts"),
		um.SetCol("balance").ToArg(balance),
		um.Where(psql.Quote("name").EQ(psql.Arg(name))),
	)
	return execOne(ctx, w.tx, query)
}

func (w *Writer) DeleteAll(ctx context.Context) error {
	_, err := bob.Exec(ctx, w.tx, psql.Delete(dm.From("accounts")))
	return err
}

func execOne(ctx context.Context, exec bob.Executor, query bob.Query) error {
	res, err := bob.Exec(ctx, exec, query)
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation
}
