package model

// LoginRequest represents request for POST /session/login.
// Either Email and Password, or GoogleIDToken must be set.
type LoginRequest struct {
	Email         string `json:"email,omitempty"`
	Password      string `json:"password,omitempty"`
	GoogleIDToken string `json:"googleIdToken,omitempty"`
}

// Identity is a verified login returned by the identity provider
type Identity struct {
	IDToken     string
	UserID      string
	DisplayName string
	Email       string
}

// UserProfile represents the logged in user
type UserProfile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// SessionResponse represents response for GET /session
type SessionResponse struct {
	State                      string       `json:"state"`
	ServiceProviderInitialized bool         `json:"serviceProviderInitialized"`
	KeyInitialized             bool         `json:"keyInitialized"`
	LoggedIn                   bool         `json:"loggedIn"`
	Busy                       bool         `json:"busy"`
	RequiredShares             int          `json:"requiredShares"`
	User                       *UserProfile `json:"user,omitempty"`
	Actions                    []string     `json:"actions"`
}

// ResetRequest represents request for POST /session/reset
type ResetRequest struct {
	Confirm string `json:"confirm"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
