package ledger

import (
	"errors"
	"fmt"
)

// Error kinds returned by the ledger. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrUnknownAccount   = errors.New("unknown account")
	ErrDuplicateAccount = errors.New("duplicate account")
	ErrNotFound         = errors.New("not found")
	ErrStorageFailure   = errors.New("storage failure")
)

// StorageFailure wraps a persistence error so that it matches ErrStorageFailure
// while keeping the underlying cause reachable.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// InvalidInput builds an ErrInvalidInput with a formatted reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsDomainError reports whether err already carries one of the ledger kinds.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrDuplicateAccount) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStorageFailure)
}
