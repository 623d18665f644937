package model

// KDFParams are the scrypt parameters a device share file was sealed with
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DeviceShareFile represents the on-disk device share envelope
type DeviceShareFile struct {
	KeyID        string    `json:"keyId"`        // metadata key the share belongs to
	PolynomialID string    `json:"polynomialID"` // polynomial the share was evaluated on
	KDF          KDFParams `json:"kdf"`
	Salt         string    `json:"salt"`
	Nonce        string    `json:"nonce"`
	CipherText   string    `json:"cipherText"`
}

// InputShareRequest represents request for POST /session/shares/input
type InputShareRequest struct {
	Share string `json:"share"` // 64 hex chars
}

// RecoverMnemonicRequest represents request for POST /session/shares/mnemonic/recover
type RecoverMnemonicRequest struct {
	Mnemonic string `json:"mnemonic"`
}

// ShareInputResponse represents response for share input endpoints
type ShareInputResponse struct {
	RequiredShares int  `json:"requiredShares"`
	LoggedIn       bool `json:"loggedIn"`
}

// MnemonicExportResponse represents response for POST /session/shares/mnemonic/export
type MnemonicExportResponse struct {
	Mnemonic   string `json:"mnemonic"`
	ShareIndex uint32 `json:"shareIndex"`
	Warning    string `json:"warning"`
}

// DeviceShareResponse represents response for the device share endpoints
type DeviceShareResponse struct {
	Found      bool   `json:"found"`
	Share      string `json:"share,omitempty"` // hex, ready for /session/shares/input
	ShareIndex uint32 `json:"shareIndex,omitempty"`
}

// KeyDetailsResponse represents response for GET /session/key-details
type KeyDetailsResponse struct {
	PubKey         string   `json:"pubKey"`
	PolynomialID   string   `json:"polynomialID"`
	Threshold      int      `json:"threshold"`
	TotalShares    int      `json:"totalShares"`
	RequiredShares int      `json:"requiredShares"`
	ShareIndexes   []uint32 `json:"shareIndexes"`
}
