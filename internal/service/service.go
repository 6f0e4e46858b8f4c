package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// IProcessor runs a write action through the single-writer queue.
type IProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Account     *AccountService
	Ledger      *LedgerService
}

// deps is shared by the sub-services.
type deps struct {
	storage   *storage.Storage
	processor IProcessor
	engine    *balance.Engine
	publisher events.Publisher
}

// NewService wires the services. publisher may be nil.
func NewService(store *storage.Storage, processor IProcessor, engine *balance.Engine, publisher events.Publisher) *Service {
	d := &deps{
		storage:   store,
		processor: processor,
		engine:    engine,
		publisher: publisher,
	}
	return &Service{
		Transaction: &TransactionService{deps: d},
		Account:     &AccountService{deps: d},
		Ledger:      &LedgerService{deps: d},
	}
}

// read runs fn in a read transaction and turns anything that is not already a
// ledger error into a storage failure.
func (d *deps) read(ctx context.Context, op string, fn func(*storage.Reader) error) error {
	err := d.storage.Read(ctx, fn)
	if err != nil && !ledger.IsDomainError(err) {
		return ledger.StorageFailure(op, err)
	}
	return err
}

// publish sends a committed change to the feed. Failures are logged only; the
// write has already happened.
func (d *deps) publish(ctx context.Context, event events.Event) {
	if d.publisher == nil {
		return
	}

	if event.Balances == nil {
		err := d.read(ctx, "balance.Balances", func(r *storage.Reader) error {
			balances, err := d.engine.Balances(ctx, r)
			if err != nil {
				return err
			}
			event.Balances = balance.Snapshot(balances)
			return nil
		})
		if err != nil {
			logrus.WithError(err).WithField("kind", event.Kind).Warn("Service.publish.Balances")
			return
		}
	}
	if event.At.IsZero() {
		event.At = nowUTC()
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("kind", event.Kind).Warn("Service.publish.Error")
	}
}

func snapshotCopy(s transaction.BalanceSnapshot) map[string]int64 {
	out := make(map[string]int64, len(s))
	for name, bal := range s {
		out[name] = bal
	}
	return out
}
