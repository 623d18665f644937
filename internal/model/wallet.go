package model

// AccountsResponse represents response for GET /wallet/accounts
type AccountsResponse struct {
	Accounts []string `json:"accounts"`
	QR       string   `json:"QR,omitempty"` // base64 PNG of the first account
}

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"`
	BaseUnits  string `json:"baseUnits"`
	Symbol     string `json:"symbol"`
	Rate       string `json:"rate,omitempty"`
	Currency   string `json:"currency,omitempty"`
	FiatAmount string `json:"fiatAmount,omitempty"`
}

// SignResponse represents response for POST /wallet/sign
type SignResponse struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}
