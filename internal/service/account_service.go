package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

// AccountService handles account business logic.
type AccountService struct {
	*deps
}

// CreateAccount creates a regular account.
func (s *AccountService) CreateAccount(ctx context.Context, name string, startingBalance int64) (*Account, error) {
	stopTimer := logging.GetLogData(ctx).AddTiming("createAccountMs")
	action := &actions.CreateAccount{Name: name, StartingBalance: startingBalance}
	err := s.processor.Process(ctx, action)
	stopTimer()
	if err != nil {
		return nil, err
	}

	created := accountFromStorage(action.Result, action.Result.StartingBalance)
	s.publish(ctx, events.Event{Kind: events.KindAccountCreated, Account: created.Name})
	return &created, nil
}

// GetAccount returns one account with its recomputed balance.
func (s *AccountService) GetAccount(ctx context.Context, name string) (*Account, error) {
	var result *Account
	err := s.read(ctx, "account.FindByName", func(r *storage.Reader) error {
		row, err := r.Accounts.FindByName(ctx, name)
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("%w: account %q", ledger.ErrNotFound, name)
		}
		if err != nil {
			return err
		}

		history, err := r.Transactions.List(ctx, nil)
		if err != nil {
			return err
		}
		bal, err := s.engine.ComputeBalance(row, balance.NewHistory(history))
		if err != nil {
			return err
		}

		acc := accountFromStorage(row, bal)
		result = &acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAccounts returns every account in insertion order, balances recomputed.
func (s *AccountService) ListAccounts(ctx context.Context) ([]Account, error) {
	stopTimer := logging.GetLogData(ctx).AddTiming("listAccountsMs")
	defer stopTimer()

	var result []Account
	err := s.read(ctx, "balance.Balances", func(r *storage.Reader) error {
		balances, err := s.engine.Balances(ctx, r)
		if err != nil {
			return err
		}
		result = make([]Account, len(balances))
		for i, b := range balances {
			result[i] = accountFromBalance(b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
