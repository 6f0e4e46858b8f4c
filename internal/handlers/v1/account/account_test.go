package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/service"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) CreateAccount(ctx context.Context, name string, startingBalance int64) (*service.Account, error) {
	args := m.Called(ctx, name, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

func (m *mockAccountService) ListAccounts(ctx context.Context) ([]service.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, name string) (*service.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

func newTestAPI(t *testing.T, svc *mockAccountService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateAccountHandler(svc).Register(api)
	NewListAccountsHandler(svc).Register(api)
	NewGetAccountHandler(svc).Register(api)
	return api
}

var createdAt = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

// -- parseCreateAccountInput unit tests --

func TestParseCreateAccountInput_DefaultsStartingBalance(t *testing.T) {
	name, amount, err := parseCreateAccountInput(&CreateAccountInput{Body: CreateAccountBody{Name: "Wallet"}})

	assert.NoError(t, err)
	assert.Equal(t, "Wallet", name)
	assert.Zero(t, amount)
}

func TestParseCreateAccountInput_Negative(t *testing.T) {
	_, amount, err := parseCreateAccountInput(&CreateAccountInput{Body: CreateAccountBody{Name: "Card", StartingBalance: "-250"}})

	assert.NoError(t, err)
	assert.Equal(t, int64(-250), amount)
}

// -- HTTP integration tests (full Huma stack via humatest) --

func TestHTTP_CreateAccount_Success(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("CreateAccount", mock.Anything, "Wallet", int64(100)).Return(&service.Account{
		Name:            "Wallet",
		StartingBalance: 100,
		Balance:         100,
		CachedBalance:   100,
		CreatedAt:       createdAt,
	}, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{Name: "Wallet", StartingBalance: "100"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Wallet", body.Name)
	assert.Equal(t, int64(100), body.Balance)
	assert.True(t, body.CreatedAt.Equal(createdAt))
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateAccount_InvalidStartingBalance(t *testing.T) {
	mockSvc := new(mockAccountService)

	for _, value := range []string{"ten", "10.5"} {
		resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{Name: "Wallet", StartingBalance: value})
		assert.Equal(t, http.StatusBadRequest, resp.Code, value)
	}
	mockSvc.AssertNotCalled(t, "CreateAccount")
}

func TestHTTP_CreateAccount_EmptyName(t *testing.T) {
	mockSvc := new(mockAccountService)

	// Huma schema validation rejects the request before the handler runs.
	resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{Name: ""})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateAccount")
}

func TestHTTP_CreateAccount_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "duplicate", err: fmt.Errorf("%w: %q", ledger.ErrDuplicateAccount, "Wallet"), status: http.StatusConflict},
		{name: "reserved", err: ledger.InvalidInput("%q is a reserved account", "Income"), status: http.StatusBadRequest},
		{name: "storage", err: ledger.StorageFailure("account.Insert", errors.New("database unavailable")), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mockAccountService)
			mockSvc.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{Name: "Wallet"})

			assert.Equal(t, tt.status, resp.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestHTTP_ListAccounts_Success(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything).Return([]service.Account{
		{Name: "Income", Reserved: true, CreatedAt: createdAt},
		{Name: "Wallet", StartingBalance: 100, Balance: 70, CachedBalance: 70, TransactionCount: 1, CreatedAt: createdAt},
	}, nil)

	resp := newTestAPI(t, mockSvc).Get("/v1/accounts")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Accounts, 2)
	assert.True(t, body.Accounts[0].Reserved)
	assert.Equal(t, int64(70), body.Accounts[1].Balance)
	assert.Equal(t, 1, body.Accounts[1].TransactionCount)
}

func TestHTTP_ListAccounts_Empty(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything).Return([]service.Account{}, nil)

	resp := newTestAPI(t, mockSvc).Get("/v1/accounts")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"accounts":[]}`, stripSchema(t, resp.Body.Bytes()))
}

func TestHTTP_ListAccounts_ServiceError(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything).Return(nil, ledger.StorageFailure("account.List", errors.New("database unavailable")))

	resp := newTestAPI(t, mockSvc).Get("/v1/accounts")

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHTTP_GetAccount(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("GetAccount", mock.Anything, "Wallet").Return(&service.Account{Name: "Wallet", Balance: 12}, nil)
	mockSvc.On("GetAccount", mock.Anything, "Ghost").Return(nil, fmt.Errorf("%w: account %q", ledger.ErrNotFound, "Ghost"))
	api := newTestAPI(t, mockSvc)

	resp := api.Get("/v1/accounts/Wallet")
	assert.Equal(t, http.StatusOK, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(12), body.Balance)

	resp = api.Get("/v1/accounts/Ghost")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// stripSchema drops the $schema link huma adds to response bodies.
func stripSchema(t *testing.T, raw []byte) string {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &body))
	delete(body, "$schema")
	out, err := json.Marshal(body)
	require.NoError(t, err)
	return string(out)
}
