package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Transfer plans and applies one transfer. Planning reads through the
// writer, so it sees the same state the write is based on.
type Transfer struct {
	Engine      *balance.Engine
	FromAccount string
	ToAccount   string
	Amount      int64
	Metadata    balance.Metadata

	Result *transaction.Transaction
}

func (t *Transfer) Perform(ctx context.Context, writer *storage.Writer) error {
	plan, err := t.Engine.PlanTransfer(ctx, writer.Reader(), t.FromAccount, t.ToAccount, t.Amount)
	if err != nil {
		return err
	}

	created, err := t.Engine.ApplyTransfer(ctx, writer, plan, t.Metadata)
	if err != nil {
		return err
	}

	t.Result = created
	return nil
}
