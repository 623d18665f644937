package client

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// newRPCServer answers JSON-RPC calls from a method -> result table
func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEthereumProvider_AccountsBalanceSign(t *testing.T) {
	ctx := context.Background()
	srv := newRPCServer(t, map[string]any{
		"eth_chainId":    "0xaa36a7",
		"eth_getBalance": "0x14d1120d7b160000", // 1.5 ether
	})

	kp := NewEthereumKeyProvider(srv.URL)
	require.NoError(t, kp.Init(ctx))
	defer kp.Close()
	assert.Equal(t, big.NewInt(11155111), kp.ChainID())

	provider, err := kp.SetupProvider(ctx, testKeyHex)
	require.NoError(t, err)

	accs, err := provider.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accs, 1)

	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), accs[0])

	wei, err := provider.Balance(ctx, accs[0])
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", wei.String())

	sigHex, err := provider.PersonalSign(ctx, []byte("YOUR_MESSAGE"), accs[0], "secret")
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("YOUR_MESSAGE")), sig)
	require.NoError(t, err)
	assert.Equal(t, accs[0], crypto.PubkeyToAddress(*pub).Hex())

	assert.Equal(t, "ETH", provider.Unit().Symbol)
}

func TestEthereumProvider_Errors(t *testing.T) {
	ctx := context.Background()

	kp := NewEthereumKeyProvider("http://127.0.0.1:1")
	_, err := kp.SetupProvider(ctx, testKeyHex)
	assert.Error(t, err, "setup before init")

	srv := newRPCServer(t, map[string]any{"eth_chainId": "0x1"})
	kp = NewEthereumKeyProvider(srv.URL)
	require.NoError(t, kp.Init(ctx))

	_, err = kp.SetupProvider(ctx, "not-hex")
	assert.Error(t, err)

	provider, err := kp.SetupProvider(ctx, "0x"+testKeyHex)
	require.NoError(t, err)

	_, err = provider.PersonalSign(ctx, []byte("m"), "0x0000000000000000000000000000000000000001", "")
	assert.ErrorIs(t, err, chain.ErrAccountMismatch)

	_, err = provider.Balance(ctx, "nope")
	assert.Error(t, err)
}

func TestEthereumKeyProvider_InitFailsWithoutChainID(t *testing.T) {
	srv := newRPCServer(t, map[string]any{})
	kp := NewEthereumKeyProvider(srv.URL)
	assert.Error(t, kp.Init(context.Background()))
}

func TestSolanaProvider_AccountsBalanceSign(t *testing.T) {
	ctx := context.Background()
	srv := newRPCServer(t, map[string]any{
		"getHealth":  "ok",
		"getBalance": map[string]any{"context": map[string]any{"slot": 1}, "value": 1500000000},
	})

	kp := NewSolanaKeyProvider(srv.URL)
	require.NoError(t, kp.Init(ctx))

	provider, err := kp.SetupProvider(ctx, testKeyHex)
	require.NoError(t, err)

	seed, err := hex.DecodeString(testKeyHex)
	require.NoError(t, err)
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	accs, err := provider.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, solana.PublicKeyFromBytes(pub).String(), accs[0])

	lamports, err := provider.Balance(ctx, accs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1500000000), lamports.Int64())

	sigStr, err := provider.PersonalSign(ctx, []byte("YOUR_MESSAGE"), accs[0], "")
	require.NoError(t, err)
	sig, err := solana.SignatureFromBase58(sigStr)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("YOUR_MESSAGE"), sig[:]))

	_, err = provider.PersonalSign(ctx, []byte("m"), "11111111111111111111111111111111", "")
	assert.ErrorIs(t, err, chain.ErrAccountMismatch)
}

func TestSolanaKeyProvider_Errors(t *testing.T) {
	ctx := context.Background()
	srv := newRPCServer(t, map[string]any{"getHealth": "ok"})

	kp := NewSolanaKeyProvider(srv.URL)
	_, err := kp.SetupProvider(ctx, testKeyHex)
	assert.Error(t, err, "setup before init")

	require.NoError(t, kp.Init(ctx))
	_, err = kp.SetupProvider(ctx, "abcd")
	assert.Error(t, err)
	_, err = kp.SetupProvider(ctx, "zz")
	assert.Error(t, err)
}

func TestCoinGecko_GetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"ethereum":{"usd":2512.345}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClientWithBaseURL(srv.URL + "/")
	rate, err := c.GetPrice(context.Background(), "ethereum", "USD")
	require.NoError(t, err)
	assert.Equal(t, "2512.35", rate)

	_, err = c.GetPrice(context.Background(), "ethereum", "eur")
	assert.Error(t, err)
}

func TestCoinGecko_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCoinGeckoClientWithBaseURL(srv.URL).GetPrice(context.Background(), "solana", "usd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFirebase_SignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Empty(t, r.URL.RawQuery)

		var body passwordSignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body.Email)
		assert.True(t, body.ReturnSecureToken)

		w.Write([]byte(`{"idToken":"tok","localId":"uid-1","displayName":"Alice","email":"a@b.c"}`))
	}))
	defer srv.Close()

	c := NewFirebaseClient(srv.URL, "api-key")
	id, err := c.SignIn(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, &model.Identity{IDToken: "tok", UserID: "uid-1", DisplayName: "Alice", Email: "a@b.c"}, id)
}

func TestFirebase_SignInWithGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithIdp", r.URL.Path)

		var body idpSignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, strings.Contains(body.PostBody, "id_token=google-jwt"))
		assert.True(t, strings.Contains(body.PostBody, "providerId=google.com"))

		w.Write([]byte(`{"idToken":"tok","localId":"uid-2"}`))
	}))
	defer srv.Close()

	id, err := NewFirebaseClient(srv.URL, "k").SignIn(context.Background(), model.LoginRequest{GoogleIDToken: "google-jwt"})
	require.NoError(t, err)
	assert.Equal(t, "uid-2", id.UserID)
}

func TestFirebase_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
	}))
	defer srv.Close()

	_, err := NewFirebaseClient(srv.URL, "k").SignIn(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "bad"})
	require.Error(t, err)
	assert.True(t, IsIdentityError(err))
	assert.Contains(t, err.Error(), "INVALID_PASSWORD")

	_, err = NewFirebaseClient(srv.URL, "k").SignIn(context.Background(), model.LoginRequest{})
	assert.True(t, IsIdentityError(err))
}

func TestFirebase_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := srv.URL
	srv.Close()

	_, err := NewFirebaseClient(closedURL, "SECRET-API-KEY-123").SignIn(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.False(t, IsIdentityError(err))
	assert.NotContains(t, err.Error(), "SECRET-API-KEY-123")
}
