package handler

import (
	"net/http"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/wallet"

	"go.uber.org/zap"
)

// ProviderSource returns the current signing provider, nil before login
type ProviderSource interface {
	Provider() (chain.Provider, error)
}

// Reporter receives the outcome of every wallet query
type Reporter interface {
	Print(args ...any)
}

// WalletConfig holds the configured wallet demo values
type WalletConfig struct {
	SignMessage    string
	SignPassphrase string
	PriceCurrency  string
}

// WalletHandler serves wallet queries against the session's provider
type WalletHandler struct {
	providers ProviderSource
	rates     wallet.RateSource
	cfg       WalletConfig
	console   Reporter
	logger    *zap.Logger
}

// NewWalletHandler creates a new WalletHandler. rates and console may be nil.
func NewWalletHandler(providers ProviderSource, rates wallet.RateSource, cfg WalletConfig, console Reporter, logger *zap.Logger) *WalletHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if console == nil {
		console = nopReporter{}
	}
	return &WalletHandler{providers: providers, rates: rates, cfg: cfg, console: console, logger: logger}
}

type nopReporter struct{}

func (nopReporter) Print(...any) {}

// fail reports err to the console and logger before writing it
func (h *WalletHandler) fail(w http.ResponseWriter, op string, err error) {
	h.console.Print(err)
	h.logger.Error(op+" failed", zap.Error(err))
	writeDomainError(w, err)
}

// GetAccounts handles GET /wallet/accounts
// @Summary      Wallet accounts
// @Description  Lists the accounts of the reconstructed key with a QR code of the first one
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/accounts [get]
func (h *WalletHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	provider, err := h.providers.Provider()
	if err != nil {
		h.fail(w, "get accounts", err)
		return
	}

	resp, err := wallet.GetAccounts(r.Context(), provider)
	if err != nil {
		h.fail(w, "get accounts", err)
		return
	}
	h.console.Print(resp.Accounts)
	writeJSON(w, http.StatusOK, resp)
}

// GetBalance handles GET /wallet/balance
// @Summary      Wallet balance
// @Description  Gets the balance of the first account in ether (or SOL) with its fiat value when available
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	provider, err := h.providers.Provider()
	if err != nil {
		h.fail(w, "get balance", err)
		return
	}

	resp, err := wallet.GetBalance(r.Context(), provider, h.rates, h.cfg.PriceCurrency, h.logger)
	if err != nil {
		h.fail(w, "get balance", err)
		return
	}
	h.console.Print(resp)
	writeJSON(w, http.StatusOK, resp)
}

// SignMessage handles POST /wallet/sign
// @Summary      Sign message
// @Description  Signs the configured demo message with the first account
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SignResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/sign [post]
func (h *WalletHandler) SignMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	provider, err := h.providers.Provider()
	if err != nil {
		h.fail(w, "sign message", err)
		return
	}

	resp, err := wallet.SignMessage(r.Context(), provider, h.cfg.SignMessage, h.cfg.SignPassphrase)
	if err != nil {
		h.fail(w, "sign message", err)
		return
	}
	h.console.Print(resp)
	writeJSON(w, http.StatusOK, resp)
}
