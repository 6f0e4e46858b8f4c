package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// CreateTransactionBody is the request body for a transfer.
type CreateTransactionBody struct {
	FromAccount string `json:"fromAccount" minLength:"1" doc:"Account to debit"`
	ToAccount   string `json:"toAccount" minLength:"1" doc:"Account to credit"`
	Amount      string `json:"amount" minLength:"1" doc:"Positive whole amount"`
	Type        string `json:"type,omitempty" doc:"Free-form type"`
	Category    string `json:"category,omitempty" doc:"Free-form category"`
	Comment     string `json:"comment,omitempty" doc:"Optional comment"`
	CreatedAt   string `json:"createdAt,omitempty" format:"date-time" doc:"RFC3339 time, defaults to now"`
}

// CreateTransactionInput is the Huma input for a transfer.
type CreateTransactionInput struct {
	Body CreateTransactionBody
}

// CreateTransactionOutput is the Huma output for a transfer.
type CreateTransactionOutput struct {
	Status int
	Body   TransactionDetail
}

// transferer is the interface for recording transfers.
type transferer interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*service.TransactionDetail, error)
}

// CreateTransactionHandler handles POST /v1/transaction.
type CreateTransactionHandler struct {
	TransactionService transferer
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transferer) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "create-transaction",
		Method:      http.MethodPost,
		Path:        "/v1/transaction",
		Summary:     "Transfer between accounts",
		Description: "Records a transfer and returns it with the balance of every account right after it.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func parseCreateTransactionInput(input *CreateTransactionInput) (service.TransferRequest, error) {
	amount, err := handlers.ParseInteger("amount", input.Body.Amount)
	if err != nil {
		return service.TransferRequest{}, err
	}

	var createdAt time.Time
	if input.Body.CreatedAt != "" {
		createdAt, err = time.Parse(time.RFC3339, input.Body.CreatedAt)
		if err != nil {
			return service.TransferRequest{}, huma.NewError(http.StatusBadRequest, "invalid createdAt", err)
		}
	}

	return service.TransferRequest{
		FromAccount: input.Body.FromAccount,
		ToAccount:   input.Body.ToAccount,
		Amount:      amount,
		Type:        input.Body.Type,
		Category:    input.Body.Category,
		Comment:     input.Body.Comment,
		CreatedAt:   createdAt,
	}, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	req, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	result, err := h.TransactionService.Transfer(ctx, req)
	if err != nil {
		return nil, handlers.Error("failed to create transaction", err)
	}

	logging.GetLogData(ctx).AddData("transactionID", result.Transaction.ID)

	return &CreateTransactionOutput{
		Status: http.StatusCreated,
		Body:   detailFromService(result),
	}, nil
}
