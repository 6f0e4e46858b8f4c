package service

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// LedgerService handles whole-ledger operations.
type LedgerService struct {
	*deps
}

// Bootstrap makes sure the reserved accounts exist.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	return s.processor.Process(ctx, &actions.EnsureReserved{})
}

// ClearLedger removes all accounts and transactions, leaving only the
// reserved accounts at zero.
func (s *LedgerService) ClearLedger(ctx context.Context) error {
	if err := s.processor.Process(ctx, &actions.ClearLedger{}); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Kind: events.KindLedgerCleared})
	return nil
}

// ExportLedger dumps the whole store.
func (s *LedgerService) ExportLedger(ctx context.Context) (*storage.Dump, error) {
	stopTimer := logging.GetLogData(ctx).AddTiming("exportLedgerMs")
	defer stopTimer()

	var dump *storage.Dump
	err := s.read(ctx, "storage.ExportDump", func(r *storage.Reader) error {
		var err error
		dump, err = storage.ExportDump(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dump, nil
}

// ImportLedger validates dump and replaces the whole store with it.
func (s *LedgerService) ImportLedger(ctx context.Context, dump *storage.Dump) error {
	stopTimer := logging.GetLogData(ctx).AddTiming("importLedgerMs")
	err := s.processor.Process(ctx, &actions.ImportLedger{Dump: dump})
	stopTimer()
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{Kind: events.KindLedgerImported})
	return nil
}

// VerifyLedger checks the store against its own history.
func (s *LedgerService) VerifyLedger(ctx context.Context) (*balance.Report, error) {
	var report *balance.Report
	err := s.read(ctx, "balance.Verify", func(r *storage.Reader) error {
		var err error
		report, err = s.engine.Verify(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
