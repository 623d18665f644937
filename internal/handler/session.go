package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/tkey-wallet/internal/model"
	"github.com/AlexZinkM/tkey-wallet/internal/session"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"
)

const exportWarning = "each export creates a new share index; store the mnemonic offline"

// SessionController is the session surface the HTTP layer drives
type SessionController interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, req model.LoginRequest) (*session.ShareProgress, error)
	ReconstructKey(ctx context.Context) error
	KeyDetails(ctx context.Context) (*tkey.KeyDetails, error)
	UserInfo() (*model.UserProfile, error)
	InputRecoveryShare(ctx context.Context, shareHex string) (*session.ShareProgress, error)
	RecoverFromMnemonic(ctx context.Context, mnemonic string) (*session.ShareProgress, error)
	ExportMnemonicShare(ctx context.Context) (*session.MnemonicExport, error)
	SetDeviceShare(ctx context.Context) (uint32, error)
	GetDeviceShare(ctx context.Context) (*tkey.ShareStore, error)
	CriticalResetAccount(ctx context.Context, confirm string) error
	Logout(ctx context.Context) error
}

// SessionHandler serves the login flow
type SessionHandler struct {
	controller SessionController
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(controller SessionController) *SessionHandler {
	return &SessionHandler{controller: controller}
}

// Snapshot handles GET /session
// @Summary      Session state
// @Description  Returns the login state and the operations currently enabled
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /session [get]
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Snapshot().Response())
}

// Login handles POST /session/login
// @Summary      Log in
// @Description  Signs in with Firebase (email/password or Google ID token), opens the key session and reconstructs the key when no backup share is needed
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.ShareInputResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	progress, err := h.controller.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse(progress))
}

// ReconstructKey handles POST /session/reconstruct
// @Summary      Reconstruct key
// @Description  Reconstructs the key from the shares input so far and sets up the wallet provider
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.MessageResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/reconstruct [post]
func (h *SessionHandler) ReconstructKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.controller.ReconstructKey(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Key reconstructed"})
}

// KeyDetails handles GET /session/key-details
// @Summary      Key details
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.KeyDetailsResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/key-details [get]
func (h *SessionHandler) KeyDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	details, err := h.controller.KeyDetails(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	indexes := make([]uint32, len(details.ShareIndexes))
	for i, idx := range details.ShareIndexes {
		indexes[i] = uint32(idx)
	}
	writeJSON(w, http.StatusOK, model.KeyDetailsResponse{
		PubKey:         details.PubKey,
		PolynomialID:   details.PolynomialID,
		Threshold:      details.Threshold,
		TotalShares:    details.TotalShares,
		RequiredShares: details.RequiredShares,
		ShareIndexes:   indexes,
	})
}

// UserInfo handles GET /session/user
// @Summary      Logged in user
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.UserProfile
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/user [get]
func (h *SessionHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	user, err := h.controller.UserInfo()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// InputShare handles POST /session/shares/input
// @Summary      Input recovery share
// @Description  Adds a hex share; the key is reconstructed once enough shares are held
// @Tags         shares
// @Accept       json
// @Produce      json
// @Param        request  body      model.InputShareRequest  true  "Share"
// @Success      200      {object}  model.ShareInputResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /session/shares/input [post]
func (h *SessionHandler) InputShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.InputShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if req.Share == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("share is required"))
		return
	}

	progress, err := h.controller.InputRecoveryShare(r.Context(), req.Share)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse(progress))
}

// DeviceShare handles POST and GET /session/shares/device
// @Summary      Set or get the device share
// @Description  POST generates a new share and stores it on this device; GET loads this device's share for the current key
// @Tags         shares
// @Produce      json
// @Success      200  {object}  model.DeviceShareResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /session/shares/device [post]
// @Router       /session/shares/device [get]
func (h *SessionHandler) DeviceShare(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		idx, err := h.controller.SetDeviceShare(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model.DeviceShareResponse{Found: true, ShareIndex: idx})
	case http.MethodGet:
		store, err := h.controller.GetDeviceShare(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model.DeviceShareResponse{
			Found:      true,
			Share:      store.Share,
			ShareIndex: uint32(store.ShareIndex),
		})
	default:
		http.Error(w, "Method not allowed. Should be GET or POST", http.StatusMethodNotAllowed)
	}
}

// ExportMnemonic handles POST /session/shares/mnemonic/export
// @Summary      Export mnemonic share
// @Description  Generates a new share and returns it as a 24-word mnemonic. Every call creates a new share index.
// @Tags         shares
// @Produce      json
// @Success      200  {object}  model.MnemonicExportResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/shares/mnemonic/export [post]
func (h *SessionHandler) ExportMnemonic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	export, err := h.controller.ExportMnemonicShare(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MnemonicExportResponse{
		Mnemonic:   export.Mnemonic,
		ShareIndex: export.ShareIndex,
		Warning:    exportWarning,
	})
}

// RecoverMnemonic handles POST /session/shares/mnemonic/recover
// @Summary      Recover from mnemonic
// @Description  Adds a share given as a mnemonic; the key is reconstructed once enough shares are held
// @Tags         shares
// @Accept       json
// @Produce      json
// @Param        request  body      model.RecoverMnemonicRequest  true  "Mnemonic"
// @Success      200      {object}  model.ShareInputResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /session/shares/mnemonic/recover [post]
func (h *SessionHandler) RecoverMnemonic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RecoverMnemonicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if req.Mnemonic == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("mnemonic is required"))
		return
	}

	progress, err := h.controller.RecoverFromMnemonic(r.Context(), req.Mnemonic)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse(progress))
}

// Logout handles POST /session/logout
// @Summary      Log out
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.MessageResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.controller.Logout(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Logged out"})
}

// Reset handles POST /session/reset
// @Summary      Critical account reset
// @Description  Marks the key as not found so the next login creates a new key. All existing shares become useless. Body must be {"confirm":"RESET"}.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      model.ResetRequest  true  "Confirmation"
// @Success      200      {object}  model.MessageResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /session/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	if err := h.controller.CriticalResetAccount(r.Context(), req.Confirm); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Account reset"})
}

func progressResponse(p *session.ShareProgress) model.ShareInputResponse {
	return model.ShareInputResponse{RequiredShares: p.RequiredShares, LoggedIn: p.LoggedIn}
}
