package account

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account already exists")
)

// Kind tags an account as a regular value store or a reserved flow account.
type Kind int8

const (
	KindRegular Kind = iota
	KindReserved
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// Account represents an account record.
type Account struct {
	Name            string    `json:"name"`
	Kind            Kind      `json:"kind"`
	StartingBalance int64     `json:"startingBalance"`
	Balance         int64     `json:"balance"`
	TransactionRefs []int64   `json:"transactionRefs"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers can't alias the ref slice. The copy
// always has a non-nil ref list so it encodes as [] rather than null.
func (a *Account) Clone() *Account {
	c := *a
	c.TransactionRefs = append(make([]int64, 0, len(a.TransactionRefs)), a.TransactionRefs...)
	return &c
}

// AccountCreate is the input for creating a new account.
type AccountCreate struct {
	Name            string
	Kind            Kind
	StartingBalance int64
	CreatedAt       time.Time // defaults to now if zero
}

// IAccountReader defines the read side of account storage.
type IAccountReader interface {
	FindByName(ctx context.Context, name string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
}

// IAccountWriter defines account storage operations available inside a write
// transaction. Implementations never do balance arithmetic; Balance is only
// ever written with a value computed by the caller.
type IAccountWriter interface {
	IAccountReader
	Insert(ctx context.Context, create *AccountCreate) (*Account, error)
	Restore(ctx context.Context, account *Account) error
	AddTransactionRef(ctx context.Context, name string, transactionID int64) error
	RemoveTransactionRef(ctx context.Context, name string, transactionID int64) error
	UpdateBalance(ctx context.Context, name string, balance int64) error
	DeleteAll(ctx context.Context) error
}

// accountRow is the accounts table as scanned by bob.
type accountRow struct {
	Name            string        `db:"name"`
	Kind            int16         `db:"kind"`
	StartingBalance int64         `db:"starting_balance"`
	Balance         int64         `db:"balance"`
	TransactionRefs pq.Int64Array `db:"transaction_refs"`
	CreatedAt       time.Time     `db:"created_at"`
}

var accountColumns = []any{"name", "kind", "starting_balance", "balance", "transaction_refs", "created_at"}

func rowToAccount(row *accountRow) *Account {
	refs := []int64(row.TransactionRefs)
	if refs == nil {
		refs = []int64{}
	}
	return &Account{
		Name:            row.Name,
		Kind:            Kind(row.Kind),
		StartingBalance: row.StartingBalance,
		Balance:         row.Balance,
		TransactionRefs: refs,
		CreatedAt:       row.CreatedAt.UTC(),
	}
}
