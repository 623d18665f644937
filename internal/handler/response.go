package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/tkey-wallet/internal/client"
	"github.com/AlexZinkM/tkey-wallet/internal/model"
	"github.com/AlexZinkM/tkey-wallet/internal/session"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"
	"github.com/AlexZinkM/tkey-wallet/wallet"
)

// Error codes returned in model.ErrorResponse
const (
	codeNotInitialized       = "not_initialized"
	codeBusy                 = "busy"
	codePrecondition         = "precondition_failed"
	codeConfirmationRequired = "confirmation_required"
	codeIdentityRejected     = "identity_rejected"
	codeBadRequest           = "bad_request"
	codeNotFound             = "not_found"
	codeInternal             = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// writeDomainError maps session, key and wallet errors to HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotInitialized):
		return http.StatusServiceUnavailable, codeNotInitialized
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, codeBusy
	case errors.Is(err, session.ErrConfirmationRequired):
		return http.StatusBadRequest, codeConfirmationRequired
	case errors.Is(err, session.ErrMissingUserID), client.IsIdentityError(err):
		return http.StatusUnauthorized, codeIdentityRejected
	case errors.Is(err, session.ErrInvalidShare), errors.Is(err, tkey.ErrShareNotFound):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, session.ErrDeviceShareNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, session.ErrKeyNotInitialized),
		errors.Is(err, session.ErrNotLoggedIn),
		errors.Is(err, session.ErrAlreadyLoggedIn),
		errors.Is(err, session.ErrDeviceStorageDisabled),
		errors.Is(err, wallet.ErrProviderNotReady):
		return http.StatusConflict, codePrecondition
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
