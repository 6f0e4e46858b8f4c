package operator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Operator is the worker that processes items from the queue.
type Operator struct {
	storage *storage.Storage
	queue   chan ActionItem
}

func NewOperator(s *storage.Storage, queue chan ActionItem) *Operator {
	return &Operator{
		storage: s,
		queue:   queue,
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		o.processItem(item)
	}
}

// processItem runs one action inside one write transaction. Any error rolls
// the whole transaction back; nothing is retried.
func (o *Operator) processItem(item ActionItem) {
	if err := item.ctx.Err(); err != nil {
		item.response <- ActionItemResponse{err: err}
		return
	}

	writer, err := o.storage.Write(item.ctx)
	if err != nil {
		item.response <- ActionItemResponse{err: ledger.StorageFailure("storage.Write", err)}
		return
	}

	err = item.action.Perform(item.ctx, writer)
	if err != nil {
		rollback(writer, item)
		if !ledger.IsDomainError(err) {
			err = ledger.StorageFailure(actionName(item.action), err)
		}
		item.response <- ActionItemResponse{err: err}
		return
	}

	// Cancelled callers get ctx.Err() back, so their write must not land.
	if err = item.ctx.Err(); err != nil {
		rollback(writer, item)
		item.response <- ActionItemResponse{err: err}
		return
	}

	if err = writer.Commit(item.ctx); err != nil {
		item.response <- ActionItemResponse{err: ledger.StorageFailure("storage.Commit", err)}
		return
	}

	item.response <- ActionItemResponse{}
}

func rollback(writer *storage.Writer, item ActionItem) {
	if err := writer.Rollback(item.ctx); err != nil {
		logrus.WithError(err).WithField("action", actionName(item.action)).Warn("Operator.processItem.Rollback")
	}
}

func actionName(action actions.IAction) string {
	return fmt.Sprintf("%T", action)
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}
