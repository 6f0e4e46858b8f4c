package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

type CreateAccount struct {
	Name            string
	StartingBalance int64

	Result *account.Account
}

func (c *CreateAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	name := strings.TrimSpace(c.Name)
	if len(name) == 0 {
		return ledger.InvalidInput("account name is required")
	}
	if ledger.IsReserved(name) {
		return ledger.InvalidInput("%q is a reserved account", name)
	}

	created, err := writer.Accounts.Insert(ctx, &account.AccountCreate{
		Name:            name,
		Kind:            account.KindRegular,
		StartingBalance: c.StartingBalance,
	})
	if errors.Is(err, account.ErrDuplicate) {
		return fmt.Errorf("%w: %q", ledger.ErrDuplicateAccount, name)
	}
	if err != nil {
		return ledger.StorageFailure("account.Insert", err)
	}

	c.Result = created
	return nil
}
