package tkey

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// PrivateKeyProvider is the chain-side provider the service provider is
// initialised with. Init must establish whatever the provider needs (RPC
// connection, chain id) before any key is handed to it.
type PrivateKeyProvider interface {
	Init(ctx context.Context) error
}

// ConnectParams identify a login with the key network
type ConnectParams struct {
	Verifier   string
	VerifierID string
	IDToken    string
}

// ServiceProvider derives the postbox key for a verified login. A real
// deployment asks a threshold network of nodes; here one node secret stands
// in for that network, so the same verifier id always maps to the same key.
type ServiceProvider struct {
	mu         sync.Mutex
	nodeSecret []byte
	provider   PrivateKeyProvider
	postboxKey []byte
	verifierID string
}

// NewServiceProvider creates a ServiceProvider for the given node secret
func NewServiceProvider(nodeSecret []byte) (*ServiceProvider, error) {
	if len(nodeSecret) < 16 {
		return nil, errors.New("node secret must be at least 16 bytes")
	}
	secret := make([]byte, len(nodeSecret))
	copy(secret, nodeSecret)
	return &ServiceProvider{nodeSecret: secret}, nil
}

// Init configures the signing provider
func (sp *ServiceProvider) Init(ctx context.Context, provider PrivateKeyProvider) error {
	if provider == nil {
		return errors.New("private key provider is required")
	}
	if err := provider.Init(ctx); err != nil {
		return fmt.Errorf("failed to init private key provider: %w", err)
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.provider = provider
	return nil
}

// Connect derives the postbox key for params
func (sp *ServiceProvider) Connect(ctx context.Context, params ConnectParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if params.Verifier == "" || params.VerifierID == "" {
		return errors.New("verifier and verifierId are required")
	}
	if params.IDToken == "" {
		return errors.New("idToken is required")
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.provider == nil {
		return ErrServiceProviderNotInitialized
	}

	r := hkdf.New(sha256.New, sp.nodeSecret, []byte(params.Verifier), []byte(params.VerifierID))
	wide := make([]byte, 64)
	if _, err := io.ReadFull(r, wide); err != nil {
		return fmt.Errorf("failed to derive postbox key: %w", err)
	}
	defer clear(wide)

	key, err := suite.Scalar().SetBytes(wide).MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal postbox key: %w", err)
	}

	clear(sp.postboxKey)
	sp.postboxKey = key
	sp.verifierID = params.VerifierID
	return nil
}

// PostboxKey returns a copy of the postbox key of the connected login
func (sp *ServiceProvider) PostboxKey() ([]byte, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.postboxKey == nil {
		return nil, ErrNotConnected
	}
	out := make([]byte, len(sp.postboxKey))
	copy(out, sp.postboxKey)
	return out, nil
}

// Initialized reports whether Init succeeded
func (sp *ServiceProvider) Initialized() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.provider != nil
}

// Disconnect wipes the postbox key
func (sp *ServiceProvider) Disconnect() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	clear(sp.postboxKey)
	sp.postboxKey = nil
	sp.verifierID = ""
}
