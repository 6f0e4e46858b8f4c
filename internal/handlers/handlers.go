package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/ledger"
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// StatusFor maps a ledger error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownAccount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error turns a service error into a huma error with the matching status.
func Error(msg string, err error) error {
	return huma.NewError(StatusFor(err), msg, err)
}

// ParseInteger parses a whole amount such as "120" or "-5". Fractions,
// exponents that do not land on an integer and out of range values are
// rejected.
func ParseInteger(field, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return 0, huma.NewError(http.StatusBadRequest, "invalid "+field, ledger.InvalidInput("%s is required", field))
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, huma.NewError(http.StatusBadRequest, "invalid "+field, ledger.InvalidInput("%s is not a number", field))
	}
	if !d.IsInteger() {
		return 0, huma.NewError(http.StatusBadRequest, "invalid "+field, ledger.InvalidInput("%s must be a whole number", field))
	}
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, huma.NewError(http.StatusBadRequest, "invalid "+field, ledger.InvalidInput("%s is out of range", field))
	}
	return d.IntPart(), nil
}
