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
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// TransactionService handles transfers and the transaction history.
type TransactionService struct {
	*deps
}

// Transfer moves Amount between two accounts and returns the new transaction
// with the balance of every account right after it.
func (s *TransactionService) Transfer(ctx context.Context, req TransferRequest) (*TransactionDetail, error) {
	logData := logging.GetLogData(ctx)

	action := &actions.Transfer{
		Engine:      s.engine,
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      req.Amount,
		Metadata: balance.Metadata{
			Type:      req.Type,
			Category:  req.Category,
			Comment:   req.Comment,
			CreatedAt: req.CreatedAt,
		},
	}

	stopTimer := logData.AddTiming("transferMs")
	err := s.processor.Process(ctx, action)
	stopTimer()
	if err != nil {
		return nil, err
	}
	logData.AddData("transactionID", action.Result.ID)

	s.publish(ctx, events.Event{
		Kind:        events.KindTransfer,
		Transaction: action.Result,
		Balances:    action.Result.AccountsBalance.Clone(),
		At:          action.Result.CreatedAt,
	})
	return detailFromStorage(action.Result), nil
}

// GetTransaction returns a transaction and the snapshot stored with it.
func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (*TransactionDetail, error) {
	var result *TransactionDetail
	err := s.read(ctx, "transaction.FindByID", func(r *storage.Reader) error {
		row, err := r.Transactions.FindByID(ctx, id)
		if errors.Is(err, transaction.ErrNotFound) {
			return fmt.Errorf("%w: transaction %d", ledger.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		result = detailFromStorage(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTransactions returns transactions in ascending id order. A nil cursor
// returns the whole history; otherwise one page and the cursor of the next.
func (s *TransactionService) ListTransactions(ctx context.Context, cursor *TransactionCursor) ([]Transaction, *TransactionCursor, error) {
	var filter *transaction.TransactionFilter
	limit, offset := 0, 0
	if cursor != nil {
		limit = cursor.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		offset = cursor.Position
		if offset < 0 {
			return nil, nil, ledger.InvalidInput("position must not be negative")
		}
		filter = &transaction.TransactionFilter{Limit: limit, Offset: offset}
	}

	var rows []*transaction.Transaction
	err := s.read(ctx, "transaction.List", func(r *storage.Reader) error {
		var err error
		rows, err = r.Transactions.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	var nextCursor *TransactionCursor
	if filter != nil && len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &TransactionCursor{
			Position: offset + limit,
			Limit:    limit,
		}
	}

	converted := make([]Transaction, len(rows))
	for i, row := range rows {
		converted[i] = transactionFromStorage(row)
	}
	return converted, nextCursor, nil
}

// EditTransaction changes fields of a transaction in place.
func (s *TransactionService) EditTransaction(ctx context.Context, id int64, edit TransactionEdit) (*TransactionDetail, error) {
	action := &actions.UpdateTransaction{
		Engine: s.engine,
		ID:     id,
		Update: edit.toStorage(),
	}

	stopTimer := logging.GetLogData(ctx).AddTiming("editTransactionMs")
	err := s.processor.Process(ctx, action)
	stopTimer()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Kind: events.KindTransactionUpdated, Transaction: action.Result})
	return detailFromStorage(action.Result), nil
}

// DeleteTransaction removes a transaction. Its id is never handed out again.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	action := &actions.DeleteTransaction{Engine: s.engine, ID: id}

	stopTimer := logging.GetLogData(ctx).AddTiming("deleteTransactionMs")
	err := s.processor.Process(ctx, action)
	stopTimer()
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{Kind: events.KindTransactionDeleted, Transaction: action.Result})
	return nil
}
