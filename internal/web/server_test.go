package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/poold/internal/engine"
	"github.com/elys-network/poold/internal/gate"
	"github.com/elys-network/poold/internal/ledger"
	"github.com/elys-network/poold/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize("error")
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*WebServer, *ledger.Bank) {
	t.Helper()

	bank := ledger.NewBank()
	eng, err := engine.NewEngine(engine.Config{
		Ledger:         bank,
		Gate:           gate.NewStaticGate([]string{"elys1admin"}),
		CustodyAddress: "elys1custody",
	})
	require.NoError(t, err)

	bank.Mint("elys1admin", sdktypes.NewCoin("uatom", sdkmath.NewInt(10_000)))
	bank.Mint("elys1alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(10_000)))

	return NewWebServer("0", eng), bank
}

func doJSON(t *testing.T, server *WebServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestDepositDistributeClaimFlow(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/admin/pools/uatom/allow",
		map[string]string{"caller": "elys1admin"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, server, "POST", "/api/pools/uatom/deposit",
		map[string]string{"caller": "elys1alice", "amount": "100"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, server, "POST", "/api/admin/pools/uatom/distribute",
		map[string]string{"caller": "elys1admin", "amount": "10"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Preview before claiming.
	resp = doJSON(t, server, "GET", "/api/pools/uatom/positions/elys1alice", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	preview := decodeBody(t, resp)
	assert.Equal(t, "100", preview["staked_amount"])
	assert.Equal(t, "10", preview["claimable"])

	resp = doJSON(t, server, "POST", "/api/pools/uatom/claim",
		map[string]string{"caller": "elys1alice"})
	require.Equal(t, http.StatusOK, resp.Code)
	claim := decodeBody(t, resp)
	assert.Equal(t, "10", claim["payout"])
	assert.Equal(t, "elys1alice", claim["receiver"])

	resp = doJSON(t, server, "POST", "/api/pools/uatom/withdraw",
		map[string]string{"caller": "elys1alice", "amount": "100"})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminEndpointsRejectUnprivilegedCaller(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/admin/pools/uatom/allow",
		map[string]string{"caller": "elys1alice"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doJSON(t, server, "POST", "/api/admin/sweep",
		map[string]string{"caller": "elys1alice", "denom": "uatom", "amount": "1", "to": "elys1alice"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestUnknownPoolReturnsNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "GET", "/api/pools/uatom", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, server, "POST", "/api/pools/uatom/deposit",
		map[string]string{"caller": "elys1alice", "amount": "1"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBadRequestValidation(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/admin/pools/uatom/allow",
		map[string]string{"caller": "elys1admin"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Missing caller.
	resp = doJSON(t, server, "POST", "/api/pools/uatom/deposit",
		map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Non-numeric amount.
	resp = doJSON(t, server, "POST", "/api/pools/uatom/deposit",
		map[string]string{"caller": "elys1alice", "amount": "lots"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Negative amount.
	resp = doJSON(t, server, "POST", "/api/pools/uatom/deposit",
		map[string]string{"caller": "elys1alice", "amount": "-5"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Distribution on an empty pool.
	resp = doJSON(t, server, "POST", "/api/admin/pools/uatom/distribute",
		map[string]string{"caller": "elys1admin", "amount": "10"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPoolListing(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/admin/pools/uatom/allow",
		map[string]string{"caller": "elys1admin"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = doJSON(t, server, "POST", "/api/admin/pools/uatom/reward-denom",
		map[string]string{"caller": "elys1admin", "reward_denom": "ueden"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, server, "GET", "/api/pools", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])

	resp = doJSON(t, server, "GET", "/api/pools/uatom", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	pool := decodeBody(t, resp)
	assert.Equal(t, "uatom", pool["denom"])
	assert.Equal(t, "ueden", pool["reward_denom"])
	assert.Equal(t, true, pool["allowed"])
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "poold_")
}
