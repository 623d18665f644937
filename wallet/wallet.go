// Package wallet answers wallet queries through the signing provider the
// session created after the key was reconstructed.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
)

var (
	// ErrProviderNotReady is returned when no provider has been set up yet
	ErrProviderNotReady = errors.New("wallet: provider not initialized yet")

	// ErrNoAccounts is returned when the provider manages no account
	ErrNoAccounts = errors.New("wallet: provider has no accounts")
)

// firstAccount returns the provider's primary address
func firstAccount(ctx context.Context, provider chain.Provider) (string, error) {
	accounts, err := provider.Accounts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0], nil
}
