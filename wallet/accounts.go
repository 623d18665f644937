package wallet

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"github.com/skip2/go-qrcode"
)

// GetAccounts lists the provider's accounts with a QR code of the first one
func GetAccounts(ctx context.Context, provider chain.Provider) (*model.AccountsResponse, error) {
	if provider == nil {
		return nil, ErrProviderNotReady
	}

	accounts, err := provider.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	resp := &model.AccountsResponse{Accounts: accounts}
	if len(accounts) > 0 {
		qr, err := generateQRCode(accounts[0])
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		resp.QR = qr
	}
	return resp, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
