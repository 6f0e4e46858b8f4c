package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// UpdateTransactionBody lists the editable fields; absent fields are kept.
type UpdateTransactionBody struct {
	FromAccount *string    `json:"fromAccount,omitempty" minLength:"1" doc:"Account to debit"`
	ToAccount   *string    `json:"toAccount,omitempty" minLength:"1" doc:"Account to credit"`
	Amount      *string    `json:"amount,omitempty" doc:"Positive whole amount"`
	Type        *string    `json:"type,omitempty" doc:"Free-form type"`
	Category    *string    `json:"category,omitempty" doc:"Free-form category"`
	Comment     *string    `json:"comment,omitempty" doc:"Comment, empty string clears it"`
	CreatedAt   *time.Time `json:"createdAt,omitempty" doc:"RFC3339 time"`
}

type UpdateTransactionInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Transaction id"`
	Body UpdateTransactionBody
}

type UpdateTransactionOutput struct {
	Body TransactionDetail
}

type transactionEditor interface {
	EditTransaction(ctx context.Context, id int64, edit service.TransactionEdit) (*service.TransactionDetail, error)
}

// UpdateTransactionHandler handles PATCH /v1/transactions/{id}.
type UpdateTransactionHandler struct {
	TransactionService transactionEditor
}

func NewUpdateTransactionHandler(svc transactionEditor) *UpdateTransactionHandler {
	return &UpdateTransactionHandler{TransactionService: svc}
}

func (h *UpdateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "update-transaction",
		Method:      http.MethodPatch,
		Path:        "/v1/transactions/{id}",
		Summary:     "Edit a transaction",
		Description: "Edits any field except the id. Balance snapshots of other transactions are not recomputed.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func parseUpdateTransactionInput(input *UpdateTransactionInput) (service.TransactionEdit, error) {
	body := input.Body
	edit := service.TransactionEdit{
		FromAccount: omit.FromPtr(body.FromAccount),
		ToAccount:   omit.FromPtr(body.ToAccount),
		Type:        omit.FromPtr(body.Type),
		Category:    omit.FromPtr(body.Category),
		Comment:     omit.FromPtr(body.Comment),
		CreatedAt:   omit.FromPtr(body.CreatedAt),
	}
	if body.Amount != nil {
		amount, err := handlers.ParseInteger("amount", *body.Amount)
		if err != nil {
			return service.TransactionEdit{}, err
		}
		edit.Amount = omit.From(amount)
	}
	return edit, nil
}

func (h *UpdateTransactionHandler) handle(ctx context.Context, input *UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	edit, err := parseUpdateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	logging.GetLogData(ctx).AddData("transactionID", input.ID)

	detail, err := h.TransactionService.EditTransaction(ctx, input.ID, edit)
	if err != nil {
		return nil, handlers.Error("failed to update transaction", err)
	}
	return &UpdateTransactionOutput{Body: detailFromService(detail)}, nil
}
