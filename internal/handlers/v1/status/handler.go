package status

import (
	"context"
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// storageReader is the slice of storage.Storage the health check needs.
type storageReader interface {
	Read(ctx context.Context, fn func(*storage.Reader) error) error
}

type Handler struct {
	Storage storageReader
}

func NewHandler(s storageReader) Handler {
	return Handler{Storage: s}
}

// Handler reports 200 when the store answers a read, 503 otherwise.
func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	err := h.Storage.Read(req.Context(), func(r *storage.Reader) error {
		accounts, err := r.Accounts.List(req.Context())
		if err != nil {
			return err
		}
		logData.AddData("accountCount", len(accounts))
		return nil
	})
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return err
	}

	w.WriteHeader(http.StatusOK)
	return nil
}
