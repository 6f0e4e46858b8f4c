package storage

import (
	"context"
	"sync"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Tx is one backend transaction. Read-only transactions reject writes.
type Tx interface {
	Accounts() account.IAccountWriter
	Transactions() transaction.ITransactionWriter
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Backend is a concrete ledger store (postgres, memory).
type Backend interface {
	Begin(ctx context.Context, readOnly bool) (Tx, error)
	Close() error
}

// Storage owns the backend handle. Writers hold the exclusive lock from Write
// until Commit or Rollback, readers share it, so a reader never observes a
// write that is still in flight.
type Storage struct {
	mu      sync.RWMutex
	backend Backend
}

func NewStorage(backend Backend) *Storage {
	return &Storage{backend: backend}
}

// Read runs fn against a consistent read-only view of the ledger.
func (s *Storage) Read(ctx context.Context, fn func(*Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.backend.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	return fn(NewReader(tx))
}

// Write opens the exclusive write section. The caller must Commit or Rollback
// the returned Writer to release it.
func (s *Storage) Write(ctx context.Context) (*Writer, error) {
	s.mu.Lock()

	tx, err := s.backend.Begin(ctx, false)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return newWriter(tx, s.mu.Unlock), nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}
