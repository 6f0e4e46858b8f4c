package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := storage.NewStorage(memory.New())
	delegator := operator.NewOperatorDelegator(store, 1)
	delegator.Start()
	t.Cleanup(delegator.Stop)

	hub := events.NewHub()
	svc := service.NewService(store, delegator, balance.NewEngine(), hub)
	require.NoError(t, svc.Ledger.Bootstrap(context.Background()))

	rest := &Rest{
		Logger:      logging.SetupLogging("error"),
		Storage:     store,
		Service:     svc,
		Hub:         hub,
		CORSOrigins: []string{"http://app.example"},
	}
	server := httptest.NewServer(rest.Router())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_Status(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_TransferFlow(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/v1/account", map[string]string{"name": "A", "startingBalance": "100"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postJSON(t, server.URL+"/v1/account", map[string]string{"name": "B"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server.URL+"/v1/transaction", map[string]string{"fromAccount": "A", "toAccount": "B", "amount": "30"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var detail struct {
		Transaction struct {
			ID             int64 `json:"id"`
			AvailableMoney int64 `json:"availableMoney"`
		} `json:"transaction"`
		Balances map[string]int64 `json:"balances"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, int64(1), detail.Transaction.ID)
	assert.Equal(t, int64(70), detail.Transaction.AvailableMoney)
	assert.Equal(t, map[string]int64{"Income": 0, "Expense": 0, "A": 70, "B": 30}, detail.Balances)

	resp = postJSON(t, server.URL+"/v1/transaction", map[string]string{"fromAccount": "A", "toAccount": "Ghost", "amount": "5"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	listResp, err := http.Get(server.URL + "/v1/accounts")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var accounts struct {
		Accounts []struct {
			Name    string `json:"name"`
			Balance int64  `json:"balance"`
		} `json:"accounts"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&accounts))
	require.Len(t, accounts.Accounts, 4)
	assert.Equal(t, "A", accounts.Accounts[2].Name)
	assert.Equal(t, int64(70), accounts.Accounts[2].Balance)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/v1/accounts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_OpenAPI(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ExportImportRoundTrip(t *testing.T) {
	server := newTestServer(t)

	require.Equal(t, http.StatusCreated, postJSON(t, server.URL+"/v1/account", map[string]string{"name": "A", "startingBalance": "50"}).StatusCode)
	require.Equal(t, http.StatusCreated, postJSON(t, server.URL+"/v1/account", map[string]string{"name": "B"}).StatusCode)
	require.Equal(t, http.StatusCreated, postJSON(t, server.URL+"/v1/transaction", map[string]string{"fromAccount": "A", "toAccount": "B", "amount": "20", "comment": "rent"}).StatusCode)

	exported := getLedger(t, server.URL)
	require.Len(t, exported["accounts"], 4)

	resp := postJSON(t, server.URL+"/v1/ledger/clear", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	cleared := getLedger(t, server.URL)
	require.Len(t, cleared["accounts"], 2)

	resp = postJSON(t, server.URL+"/v1/ledger/import", exported)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, exported, getLedger(t, server.URL))

	verifyResp, err := http.Get(server.URL + "/v1/ledger/verify")
	require.NoError(t, err)
	defer verifyResp.Body.Close()
	var report struct {
		Consistent bool `json:"consistent"`
	}
	require.NoError(t, json.NewDecoder(verifyResp.Body).Decode(&report))
	assert.True(t, report.Consistent)
}

// getLedger exports the ledger as generic JSON without the $schema link.
func getLedger(t *testing.T, baseURL string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(baseURL + "/v1/ledger/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	delete(body, "$schema")
	return body
}
