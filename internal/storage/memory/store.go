package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

var (
	ErrReadOnly = errors.New("memory: write in read-only transaction")
	ErrTxDone   = errors.New("memory: transaction already finished")
)

// Store is an in-memory ledger backend. Write transactions work on a private
// copy of the state that replaces the live state on commit, so a failed write
// leaves nothing behind. With a path set, every commit is flushed to a JSON
// file before it becomes visible.
type Store struct {
	mu    sync.Mutex
	state *state
	path  string
}

var _ storage.Backend = (*Store)(nil)

func New() *Store {
	return &Store{state: newState()}
}

// Open loads the JSON file at path, creating it on first use.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &Store{state: newState(), path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return s, s.flush(s.state)
	}
	if err != nil {
		return nil, err
	}

	var dump storage.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("memory: decode %s: %w", path, err)
	}
	st, err := stateFromDump(&dump)
	if err != nil {
		return nil, fmt.Errorf("memory: load %s: %w", path, err)
	}
	s.state = st
	return s, nil
}

func (s *Store) Begin(ctx context.Context, readOnly bool) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if readOnly {
		return &memTx{store: s, state: s.state, readOnly: true}, nil
	}
	return &memTx{store: s, state: s.state.clone()}, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) commit(st *state) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := s.flush(st); err != nil {
			return err
		}
	}
	s.state = st
	return nil
}

// flush writes to a temp file and renames it over the old one.
func (s *Store) flush(st *state) error {
	data, err := json.MarshalIndent(st.dump(), "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

type memTx struct {
	store    *Store
	state    *state
	readOnly bool
	done     bool
}

func (t *memTx) Accounts() account.IAccountWriter {
	return &accountTable{tx: t}
}

func (t *memTx) Transactions() transaction.ITransactionWriter {
	return &transactionTable{tx: t}
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.readOnly {
		return nil
	}
	return t.store.commit(t.state)
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}

func (t *memTx) writable() error {
	if t.done {
		return ErrTxDone
	}
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}
