package wallet

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/model"
)

// SignMessage signs message with the provider's first account. passphrase is
// forwarded to the provider; providers that unlock with it validate it.
func SignMessage(ctx context.Context, provider chain.Provider, message, passphrase string) (*model.SignResponse, error) {
	if provider == nil {
		return nil, ErrProviderNotReady
	}

	address, err := firstAccount(ctx, provider)
	if err != nil {
		return nil, err
	}

	signature, err := provider.PersonalSign(ctx, []byte(message), address, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	return &model.SignResponse{
		Address:   address,
		Message:   message,
		Signature: signature,
	}, nil
}
