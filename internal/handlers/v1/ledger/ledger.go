package ledger

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/handlers"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// ledgerService is the whole-ledger surface the handlers need.
type ledgerService interface {
	ClearLedger(ctx context.Context) error
	ExportLedger(ctx context.Context) (*storage.Dump, error)
	ImportLedger(ctx context.Context, dump *storage.Dump) error
	VerifyLedger(ctx context.Context) (*balance.Report, error)
}

// Handler serves the /v1/ledger endpoints.
type Handler struct {
	LedgerService ledgerService
}

func NewHandler(svc ledgerService) *Handler {
	return &Handler{LedgerService: svc}
}

type EmptyInput struct{}

type NoContentOutput struct {
	Status int
}

type ExportOutput struct {
	Body LedgerDump
}

type ImportInput struct {
	Body LedgerDump
}

// VerifyResponseBody is a consistency report. Consistent ignores stale
// historical values, which edits and deletes leave behind on purpose.
type VerifyResponseBody struct {
	Consistent   bool            `json:"consistent" doc:"False when refs or cached balances disagree with history"`
	Accounts     int             `json:"accounts"`
	Transactions int             `json:"transactions"`
	Issues       []balance.Issue `json:"issues"`
}

type VerifyOutput struct {
	Body VerifyResponseBody
}

// Register registers every ledger endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "clear-ledger",
		Method:      http.MethodPost,
		Path:        "/v1/ledger/clear",
		Summary:     "Clear the ledger",
		Description: "Removes every account and transaction, then recreates Income and Expense. Transaction ids keep counting.",
		Tags:        []string{"Ledger"},
	}, h.clear)

	huma.Register(api, huma.Operation{
		OperationID: "export-ledger",
		Method:      http.MethodGet,
		Path:        "/v1/ledger/export",
		Summary:     "Export the ledger",
		Tags:        []string{"Ledger"},
	}, h.export)

	huma.Register(api, huma.Operation{
		OperationID: "import-ledger",
		Method:      http.MethodPost,
		Path:        "/v1/ledger/import",
		Summary:     "Import a ledger",
		Description: "Replaces the whole ledger with a previously exported one.",
		Tags:        []string{"Ledger"},
	}, h.importLedger)

	huma.Register(api, huma.Operation{
		OperationID: "verify-ledger",
		Method:      http.MethodGet,
		Path:        "/v1/ledger/verify",
		Summary:     "Verify the ledger",
		Tags:        []string{"Ledger"},
	}, h.verify)
}

func (h *Handler) clear(ctx context.Context, _ *EmptyInput) (*NoContentOutput, error) {
	if err := h.LedgerService.ClearLedger(ctx); err != nil {
		return nil, handlers.Error("failed to clear ledger", err)
	}
	return &NoContentOutput{Status: http.StatusNoContent}, nil
}

func (h *Handler) export(ctx context.Context, _ *EmptyInput) (*ExportOutput, error) {
	dump, err := h.LedgerService.ExportLedger(ctx)
	if err != nil {
		return nil, handlers.Error("failed to export ledger", err)
	}

	logData := logging.GetLogData(ctx)
	logData.AddData("accountCount", len(dump.Accounts))
	logData.AddData("transactionCount", len(dump.Transactions))

	return &ExportOutput{Body: dumpFromStorage(dump)}, nil
}

func (h *Handler) importLedger(ctx context.Context, input *ImportInput) (*NoContentOutput, error) {
	logData := logging.GetLogData(ctx)
	logData.AddData("accountCount", len(input.Body.Accounts))
	logData.AddData("transactionCount", len(input.Body.Transactions))

	if err := h.LedgerService.ImportLedger(ctx, input.Body.toStorage()); err != nil {
		return nil, handlers.Error("failed to import ledger", err)
	}
	return &NoContentOutput{Status: http.StatusNoContent}, nil
}

func (h *Handler) verify(ctx context.Context, _ *EmptyInput) (*VerifyOutput, error) {
	report, err := h.LedgerService.VerifyLedger(ctx)
	if err != nil {
		return nil, handlers.Error("failed to verify ledger", err)
	}

	issues := report.Issues
	if issues == nil {
		issues = []balance.Issue{}
	}
	logging.GetLogData(ctx).AddData("issueCount", len(issues))

	return &VerifyOutput{Body: VerifyResponseBody{
		Consistent:   report.Consistent(),
		Accounts:     report.Accounts,
		Transactions: report.Transactions,
		Issues:       issues,
	}}, nil
}
