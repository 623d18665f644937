package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexZinkM/tkey-wallet/internal/config"
	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ethNode answers eth_chainId for Sepolia
func ethNode(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0xaa36a7"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, rpcURL string) *config.Config {
	return &config.Config{
		Verifier:          "w3a-firebase-demo",
		FirebaseAPIKey:    "key",
		FirebaseBaseURL:   "http://127.0.0.1:1",
		PostboxNodeSecret: "0123456789abcdef-node-secret",
		MetadataBackend:   config.MetadataBackendFile,
		MetadataDir:       t.TempDir(),
		DeviceShareDir:    t.TempDir(),
		Chain:             config.ChainEthereum,
		EthRPCURL:         rpcURL,
		SignMessage:       "YOUR_MESSAGE",
	}
}

func getSession(t *testing.T, h http.Handler) model.SessionResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNew_ServesSessionAndInitializes(t *testing.T) {
	ctx := context.Background()
	password := func() ([]byte, error) { return []byte("device-pass"), nil }

	a, err := New(ctx, testConfig(t, ethNode(t).URL), password, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	resp := getSession(t, a.Router)
	assert.Equal(t, "uninitialized", resp.State)
	assert.Empty(t, resp.Actions)

	require.NoError(t, a.Controller.Initialize(ctx))

	resp = getSession(t, a.Router)
	assert.Equal(t, "initialized", resp.State)
	assert.True(t, resp.ServiceProviderInitialized)
	assert.Equal(t, []string{"login"}, resp.Actions)
}

func TestNew_WalletNotReadyBeforeLogin(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, ethNode(t).URL), nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallet/accounts", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// device storage is disabled without a passphrase
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/shares/device", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestNew_SolanaChain(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "")
	cfg.Chain = config.ChainSolana
	cfg.SolanaRPCURL = "http://127.0.0.1:1"

	a, err := New(ctx, cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	// unreachable node: initialization fails but the app keeps serving
	assert.Error(t, a.Controller.Initialize(ctx))
	assert.Equal(t, "uninitialized", getSession(t, a.Router).State)
}
