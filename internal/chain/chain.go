// Package chain defines the signing provider the session hands a
// reconstructed key to, independent of the blockchain behind it.
package chain

import (
	"context"
	"errors"
	"math/big"
)

// ErrAccountMismatch is returned when a sign request names an account the
// provider does not hold
var ErrAccountMismatch = errors.New("chain: account not managed by provider")

// Unit describes the native currency of a chain
type Unit struct {
	Symbol      string
	Decimals    int
	CoinGeckoID string
	// Trim drops trailing fraction zeros when formatting
	Trim bool
}

// Provider signs and queries on behalf of a single private key
type Provider interface {
	Accounts(ctx context.Context) ([]string, error)
	// Balance returns the balance of addr in base units (wei, lamports)
	Balance(ctx context.Context, addr string) (*big.Int, error)
	// PersonalSign signs message as from. passphrase is forwarded for
	// providers backed by a keystore.
	PersonalSign(ctx context.Context, message []byte, from, passphrase string) (string, error)
	Unit() Unit
}

// PrivateKeyProvider creates Providers from hex private keys. Init must be
// called once before SetupProvider.
type PrivateKeyProvider interface {
	Init(ctx context.Context) error
	SetupProvider(ctx context.Context, privKeyHex string) (Provider, error)
}
