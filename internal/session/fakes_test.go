package session

import (
	"context"
	"errors"
	"math/big"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/model"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"
)

type fakeIdentity struct {
	identity *model.Identity
	err      error
	calls    int

	// when set, SignIn signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeIdentity) SignIn(ctx context.Context, req model.LoginRequest) (*model.Identity, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	id := *f.identity
	return &id, nil
}

// fakeKeyClient needs `required` more shares after Initialize; each accepted
// share lowers it by one
type fakeKeyClient struct {
	initErr       error
	initializeErr error
	required      int

	connected      *tkey.ConnectParams
	initialized    bool
	inputs         []string
	reconstructs   int
	generated      tkey.ShareIndex
	closes         int
	postbox        []byte
	pendingRequire int
}

func newFakeKeyClient(required int) *fakeKeyClient {
	return &fakeKeyClient{required: required, generated: 2, postbox: []byte("postbox-key")}
}

func (f *fakeKeyClient) Init(ctx context.Context, provider tkey.PrivateKeyProvider) error {
	if f.initErr != nil {
		return f.initErr
	}
	return provider.Init(ctx)
}

func (f *fakeKeyClient) Connect(ctx context.Context, params tkey.ConnectParams) error {
	f.connected = &params
	return nil
}

func (f *fakeKeyClient) Initialize(ctx context.Context) error {
	if f.initializeErr != nil {
		return f.initializeErr
	}
	f.initialized = true
	f.pendingRequire = f.required
	return nil
}

func (f *fakeKeyClient) GetKeyDetails() (*tkey.KeyDetails, error) {
	if !f.initialized {
		return nil, tkey.ErrNotInitialized
	}
	return &tkey.KeyDetails{
		PubKey:         "pub",
		PolynomialID:   "poly",
		Threshold:      2,
		TotalShares:    int(f.generated),
		RequiredShares: f.pendingRequire,
	}, nil
}

func (f *fakeKeyClient) ReconstructKey(ctx context.Context) (*tkey.ReconstructedKey, error) {
	if f.pendingRequire > 0 {
		return nil, tkey.ErrNotEnoughShares
	}
	f.reconstructs++
	key := make([]byte, tkey.ShareLen)
	key[31] = 7
	return &tkey.ReconstructedKey{PrivKey: key}, nil
}

func (f *fakeKeyClient) GenerateNewShare(ctx context.Context) (*tkey.GenerateShareResult, error) {
	f.generated++
	return &tkey.GenerateShareResult{NewShareIndex: f.generated}, nil
}

func (f *fakeKeyClient) OutputShareStore(index tkey.ShareIndex) (*tkey.ShareStore, error) {
	value := make(tkey.Share, tkey.ShareLen)
	value[0] = byte(index)
	return &tkey.ShareStore{Share: value.Hex(), ShareIndex: index, PolynomialID: "poly"}, nil
}

func (f *fakeKeyClient) InputShare(ctx context.Context, shareHex string) error {
	if _, err := tkey.ParseShareHex(shareHex); err != nil {
		return err
	}
	f.inputs = append(f.inputs, shareHex)
	if f.pendingRequire > 0 {
		f.pendingRequire--
	}
	return nil
}

func (f *fakeKeyClient) PostboxKey() ([]byte, error) {
	if f.connected == nil {
		return nil, tkey.ErrNotConnected
	}
	return append([]byte{}, f.postbox...), nil
}

func (f *fakeKeyClient) Close() {
	f.closes++
	f.connected = nil
	f.initialized = false
}

type fakeStorage struct {
	sets []tkey.SetMetadataParams

	// when set, SetMetadata signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeStorage) GetMetadata(ctx context.Context, privKey []byte) (*tkey.Metadata, error) {
	return nil, nil
}

func (f *fakeStorage) SetMetadata(ctx context.Context, params tkey.SetMetadataParams) error {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	f.sets = append(f.sets, params)
	return nil
}

type fakeDeviceStorage struct {
	stored *tkey.ShareStore
}

func (f *fakeDeviceStorage) StoreDeviceShare(ctx context.Context, store *tkey.ShareStore) error {
	f.stored = store
	return nil
}

func (f *fakeDeviceStorage) GetDeviceShare(ctx context.Context) (*tkey.ShareStore, error) {
	return f.stored, nil
}

type fakeKeyProvider struct {
	initErr    error
	setupErr   error
	setupCalls int
	lastKey    string
}

func (f *fakeKeyProvider) Init(ctx context.Context) error { return f.initErr }

func (f *fakeKeyProvider) SetupProvider(ctx context.Context, privKeyHex string) (chain.Provider, error) {
	f.setupCalls++
	f.lastKey = privKeyHex
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	return fakeProvider{}, nil
}

type fakeProvider struct{}

func (fakeProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{"0x0000000000000000000000000000000000000abc"}, nil
}

func (fakeProvider) Balance(ctx context.Context, addr string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (fakeProvider) PersonalSign(ctx context.Context, message []byte, from, passphrase string) (string, error) {
	return "", errors.New("not implemented")
}

func (fakeProvider) Unit() chain.Unit {
	return chain.Unit{Symbol: "ETH", Decimals: 18}
}
