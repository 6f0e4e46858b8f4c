package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers"
	"github.com/carson-networks/ledger-server/internal/service"
)

type TransactionIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Transaction id"`
}

type GetTransactionOutput struct {
	Body TransactionDetail
}

type transactionGetter interface {
	GetTransaction(ctx context.Context, id int64) (*service.TransactionDetail, error)
}

// GetTransactionHandler handles GET /v1/transactions/{id}.
type GetTransactionHandler struct {
	TransactionService transactionGetter
}

func NewGetTransactionHandler(svc transactionGetter) *GetTransactionHandler {
	return &GetTransactionHandler{TransactionService: svc}
}

func (h *GetTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-transaction",
		Method:      http.MethodGet,
		Path:        "/v1/transactions/{id}",
		Summary:     "Get a transaction",
		Description: "Returns a transaction with the balance snapshot stored when it was recorded.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func (h *GetTransactionHandler) handle(ctx context.Context, input *TransactionIDInput) (*GetTransactionOutput, error) {
	detail, err := h.TransactionService.GetTransaction(ctx, input.ID)
	if err != nil {
		return nil, handlers.Error("failed to get transaction", err)
	}
	return &GetTransactionOutput{Body: detailFromService(detail)}, nil
}
