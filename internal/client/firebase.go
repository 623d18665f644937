package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/tkey-wallet/internal/model"
)

const (
	firebaseAPI        = "https://identitytoolkit.googleapis.com/v1"
	googleProviderID   = "google.com"
	firebaseRequestURI = "http://localhost"
	apiKeyHeader       = "X-Goog-Api-Key"
)

// IdentityError is a sign-in rejected by the identity provider
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity provider rejected sign-in (status %d): %s", e.Status, e.Message)
}

// IsIdentityError checks if error is IdentityError
func IsIdentityError(err error) bool {
	var identityErr *IdentityError
	return errors.As(err, &identityErr)
}

// FirebaseClient signs users in through the Firebase Identity Toolkit REST API
type FirebaseClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFirebaseClient creates a new Firebase client. An empty baseURL uses the public API.
func NewFirebaseClient(baseURL, apiKey string) *FirebaseClient {
	if baseURL == "" {
		baseURL = firebaseAPI
	}
	return &FirebaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type passwordSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type idpSignInRequest struct {
	PostBody          string `json:"postBody"`
	RequestURI        string `json:"requestUri"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// signInResponse is the subset of the sign-in response used here
type signInResponse struct {
	IDToken     string `json:"idToken"`
	LocalID     string `json:"localId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges credentials for a Firebase ID token. A Google ID token
// takes precedence over email and password.
func (c *FirebaseClient) SignIn(ctx context.Context, req model.LoginRequest) (*model.Identity, error) {
	var (
		method string
		body   any
	)
	switch {
	case req.GoogleIDToken != "":
		postBody := url.Values{}
		postBody.Set("id_token", req.GoogleIDToken)
		postBody.Set("providerId", googleProviderID)
		method = "accounts:signInWithIdp"
		body = idpSignInRequest{
			PostBody:          postBody.Encode(),
			RequestURI:        firebaseRequestURI,
			ReturnSecureToken: true,
		}
	case req.Email != "" && req.Password != "":
		method = "accounts:signInWithPassword"
		body = passwordSignInRequest{
			Email:             req.Email,
			Password:          req.Password,
			ReturnSecureToken: true,
		}
	default:
		return nil, &IdentityError{Status: http.StatusBadRequest, Message: "email and password or googleIdToken required"}
	}

	var out signInResponse
	if err := c.post(ctx, method, body, &out); err != nil {
		return nil, err
	}

	return &model.Identity{
		IDToken:     out.IDToken,
		UserID:      out.LocalID,
		DisplayName: out.DisplayName,
		Email:       out.Email,
	}, nil
}

func (c *FirebaseClient) post(ctx context.Context, method string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	// key goes in a header so transport errors, which quote the URL, never carry it
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp errorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return &IdentityError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	return nil
}
