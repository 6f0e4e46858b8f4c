package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type Kind string

const (
	KindTransfer           Kind = "transfer"
	KindTransactionUpdated Kind = "transaction_updated"
	KindTransactionDeleted Kind = "transaction_deleted"
	KindAccountCreated     Kind = "account_created"
	KindLedgerCleared      Kind = "ledger_cleared"
	KindLedgerImported     Kind = "ledger_imported"
)

// Event is published after a write has committed. Balances are the
// recomputed balances of every account at that point.
type Event struct {
	Kind        Kind                        `json:"kind"`
	Transaction *transaction.Transaction    `json:"transaction,omitempty"`
	Account     string                      `json:"account,omitempty"`
	Balances    transaction.BalanceSnapshot `json:"balances"`
	At          time.Time                   `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Publishers fans an event out. Delivery is best effort: a failing publisher
// is logged and does not stop the others.
type Publishers []Publisher

func (p Publishers) Publish(ctx context.Context, event Event) error {
	for _, publisher := range p {
		if err := publisher.Publish(ctx, event); err != nil {
			logrus.WithError(err).WithField("kind", event.Kind).Warn("Events.Publish.Error")
		}
	}
	return nil
}
