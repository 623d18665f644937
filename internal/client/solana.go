package client

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/common"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var solUnit = chain.Unit{
	Symbol:      "SOL",
	Decimals:    common.SOLDecimals,
	CoinGeckoID: "solana",
}

// SolanaKeyProvider materialises Solana signing providers over one RPC client
type SolanaKeyProvider struct {
	rpcURL string

	mu        sync.Mutex
	rpcClient *rpc.Client
}

// NewSolanaKeyProvider creates a provider for the given RPC endpoint
func NewSolanaKeyProvider(rpcURL string) *SolanaKeyProvider {
	return &SolanaKeyProvider{rpcURL: rpcURL}
}

// Init creates the RPC client and checks the node is healthy
func (p *SolanaKeyProvider) Init(ctx context.Context) error {
	rpcClient := rpc.New(p.rpcURL)
	health, err := rpcClient.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach solana rpc: %w", err)
	}
	if health != rpc.HealthOk {
		return fmt.Errorf("solana rpc unhealthy: %s", health)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rpcClient = rpcClient
	return nil
}

// SetupProvider creates a signing provider whose ed25519 key is derived from
// the 32-byte hex seed
func (p *SolanaKeyProvider) SetupProvider(ctx context.Context, privKeyHex string) (chain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	rpcClient := p.rpcClient
	p.mu.Unlock()
	if rpcClient == nil {
		return nil, errors.New("solana provider not initialized")
	}

	seed, err := hex.DecodeString(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	defer clear(seed)
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	wallet := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	return &SolanaProvider{
		rpcClient: rpcClient,
		wallet:    wallet,
	}, nil
}

// SolanaProvider signs with a single key and reads balances over RPC
type SolanaProvider struct {
	rpcClient *rpc.Client
	wallet    solana.PrivateKey
}

// Accounts returns the provider's only address
func (p *SolanaProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{p.wallet.PublicKey().String()}, nil
}

// Balance gets the SOL balance of addr in lamports
func (p *SolanaProvider) Balance(ctx context.Context, addr string) (*big.Int, error) {
	pubkey, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana address: %w", err)
	}
	balance, err := p.rpcClient.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return new(big.Int).SetUint64(balance.Value), nil
}

// PersonalSign signs the raw message bytes with ed25519 and returns the
// base58 signature. passphrase is not used.
func (p *SolanaProvider) PersonalSign(ctx context.Context, message []byte, from, passphrase string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if from != p.wallet.PublicKey().String() {
		return "", fmt.Errorf("%s: %w", from, chain.ErrAccountMismatch)
	}
	sig, err := p.wallet.Sign(message)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	return sig.String(), nil
}

// Unit returns SOL
func (p *SolanaProvider) Unit() chain.Unit {
	return solUnit
}
