package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/common"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var etherUnit = chain.Unit{
	Symbol:      "ETH",
	Decimals:    common.EtherDecimals,
	CoinGeckoID: "ethereum",
	Trim:        true,
}

// EthereumKeyProvider materialises Ethereum signing providers over one RPC connection
type EthereumKeyProvider struct {
	rpcURL string

	mu      sync.Mutex
	rpc     *ethclient.Client
	chainID *big.Int
}

// NewEthereumKeyProvider creates a provider for the given JSON-RPC endpoint
func NewEthereumKeyProvider(rpcURL string) *EthereumKeyProvider {
	return &EthereumKeyProvider{rpcURL: rpcURL}
}

// Init dials the RPC endpoint and reads its chain id
func (p *EthereumKeyProvider) Init(ctx context.Context) error {
	rpcClient, err := ethclient.DialContext(ctx, p.rpcURL)
	if err != nil {
		return fmt.Errorf("failed to dial ethereum rpc: %w", err)
	}
	chainID, err := rpcClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return fmt.Errorf("failed to get chain id: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rpc != nil {
		p.rpc.Close()
	}
	p.rpc = rpcClient
	p.chainID = chainID
	return nil
}

// ChainID returns the chain id read by Init
func (p *EthereumKeyProvider) ChainID() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chainID == nil {
		return nil
	}
	return new(big.Int).Set(p.chainID)
}

// SetupProvider creates a signing provider for a hex secp256k1 private key
func (p *EthereumKeyProvider) SetupProvider(ctx context.Context, privKeyHex string) (chain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	rpcClient := p.rpc
	p.mu.Unlock()
	if rpcClient == nil {
		return nil, errors.New("ethereum provider not initialized")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &EthereumProvider{
		rpc:     rpcClient,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Close releases the RPC connection
func (p *EthereumKeyProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rpc != nil {
		p.rpc.Close()
		p.rpc = nil
	}
}

// EthereumProvider signs with a single key and reads balances over RPC
type EthereumProvider struct {
	rpc     *ethclient.Client
	key     *ecdsa.PrivateKey
	address ethcommon.Address
}

// Accounts returns the provider's only address
func (p *EthereumProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{p.address.Hex()}, nil
}

// Balance returns the latest balance of addr in wei
func (p *EthereumProvider) Balance(ctx context.Context, addr string) (*big.Int, error) {
	if !ethcommon.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid ethereum address %q", addr)
	}
	wei, err := p.rpc.BalanceAt(ctx, ethcommon.HexToAddress(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return wei, nil
}

// PersonalSign produces an EIP-191 personal_sign signature. The key is held
// in memory, so passphrase is not used to unlock anything.
func (p *EthereumProvider) PersonalSign(ctx context.Context, message []byte, from, passphrase string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ethcommon.IsHexAddress(from) || ethcommon.HexToAddress(from) != p.address {
		return "", fmt.Errorf("%s: %w", from, chain.ErrAccountMismatch)
	}

	sig, err := crypto.Sign(accounts.TextHash(message), p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Unit returns ether
func (p *EthereumProvider) Unit() chain.Unit {
	return etherUnit
}
