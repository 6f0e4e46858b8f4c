package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/opt/omit"
)

var (
	ErrNotFound  = errors.New("transaction not found")
	ErrDuplicate = errors.New("transaction already exists")
)

// Transaction represents a transaction record.
type Transaction struct {
	ID              int64           `json:"id"`
	FromAccount     string          `json:"fromAccount"`
	ToAccount       string          `json:"toAccount"`
	Amount          int64           `json:"amount"`
	AvailableMoney  int64           `json:"availableMoney"`
	Type            string          `json:"type"`
	Category        string          `json:"category"`
	Comment         string          `json:"comment"`
	CreatedAt       time.Time       `json:"createdAt"`
	AccountsBalance BalanceSnapshot `json:"accountsBalance,omitempty"`
}

func (t *Transaction) Clone() *Transaction {
	c := *t
	c.AccountsBalance = t.AccountsBalance.Clone()
	return &c
}

// Involves reports whether the named account is one of the endpoints.
func (t *Transaction) Involves(name string) bool {
	return t.FromAccount == name || t.ToAccount == name
}

// TransactionCreate is the input for creating a new transaction.
type TransactionCreate struct {
	FromAccount     string
	ToAccount       string
	Amount          int64
	AvailableMoney  int64
	Type            string
	Category        string
	Comment         string
	CreatedAt       time.Time // defaults to now if zero
	AccountsBalance BalanceSnapshot
}

// TransactionUpdate carries the editable fields; unset fields are left alone.
// The id, available money and the balance snapshot are never edited.
type TransactionUpdate struct {
	FromAccount omit.Val[string]
	ToAccount   omit.Val[string]
	Amount      omit.Val[int64]
	Type        omit.Val[string]
	Category    omit.Val[string]
	Comment     omit.Val[string]
	CreatedAt   omit.Val[time.Time]
}

func (u *TransactionUpdate) IsEmpty() bool {
	return u.FromAccount.IsUnset() &&
		u.ToAccount.IsUnset() &&
		u.Amount.IsUnset() &&
		u.Type.IsUnset() &&
		u.Category.IsUnset() &&
		u.Comment.IsUnset() &&
		u.CreatedAt.IsUnset()
}

// Apply copies the set fields onto t.
func (u *TransactionUpdate) Apply(t *Transaction) {
	if v, ok := u.FromAccount.Get(); ok {
		t.FromAccount = v
	}
	if v, ok := u.ToAccount.Get(); ok {
		t.ToAccount = v
	}
	if v, ok := u.Amount.Get(); ok {
		t.Amount = v
	}
	if v, ok := u.Type.Get(); ok {
		t.Type = v
	}
	if v, ok := u.Category.Get(); ok {
		t.Category = v
	}
	if v, ok := u.Comment.Get(); ok {
		t.Comment = v
	}
	if v, ok := u.CreatedAt.Get(); ok {
		t.CreatedAt = v
	}
}

// TransactionFilter specifies a page of transactions. Implementations return
// up to Limit+1 rows so callers can tell whether another page exists.
type TransactionFilter struct {
	Limit  int
	Offset int
}

// ITransactionReader defines the read side of transaction storage. List
// returns ascending ids; a nil filter returns everything.
type ITransactionReader interface {
	FindByID(ctx context.Context, id int64) (*Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
	NextID(ctx context.Context) (int64, error)
}

// ITransactionWriter defines transaction storage operations available inside
// a write transaction.
type ITransactionWriter interface {
	ITransactionReader
	Insert(ctx context.Context, create *TransactionCreate) (*Transaction, error)
	Restore(ctx context.Context, transaction *Transaction) error
	Update(ctx context.Context, id int64, update *TransactionUpdate) (*Transaction, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	SetNextID(ctx context.Context, next int64) error
}
