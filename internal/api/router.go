package api

import (
	"net/http"

	"github.com/AlexZinkM/tkey-wallet/internal/handler"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers are the endpoint groups served by the router
type Handlers struct {
	Session *handler.SessionHandler
	Wallet  *handler.WalletHandler
	Console *handler.ConsoleHandler
}

// SetupRouter sets up router with handlers
func SetupRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Session endpoints
	mux.HandleFunc("/session", h.Session.Snapshot)
	mux.HandleFunc("/session/login", h.Session.Login)
	mux.HandleFunc("/session/reconstruct", h.Session.ReconstructKey)
	mux.HandleFunc("/session/key-details", h.Session.KeyDetails)
	mux.HandleFunc("/session/user", h.Session.UserInfo)
	mux.HandleFunc("/session/shares/input", h.Session.InputShare)
	mux.HandleFunc("/session/shares/device", h.Session.DeviceShare)
	mux.HandleFunc("/session/shares/mnemonic/export", h.Session.ExportMnemonic)
	mux.HandleFunc("/session/shares/mnemonic/recover", h.Session.RecoverMnemonic)
	mux.HandleFunc("/session/logout", h.Session.Logout)
	mux.HandleFunc("/session/reset", h.Session.Reset)

	// Wallet endpoints
	mux.HandleFunc("/wallet/accounts", h.Wallet.GetAccounts)
	mux.HandleFunc("/wallet/balance", h.Wallet.GetBalance)
	mux.HandleFunc("/wallet/sign", h.Wallet.SignMessage)

	// Diagnostic console
	mux.HandleFunc("/console", h.Console.Latest)

	return mux
}
