// Package session sequences the login flow across the identity provider,
// the threshold key client and the chain provider. All operations share one
// busy guard: a call made while another is in flight fails with ErrBusy
// instead of waiting.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/logger"
	"github.com/AlexZinkM/tkey-wallet/internal/model"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"

	"go.uber.org/zap"
)

// IdentityProvider signs a user in and returns a verifiable identity
type IdentityProvider interface {
	SignIn(ctx context.Context, req model.LoginRequest) (*model.Identity, error)
}

// KeyClient is the subset of the threshold key client the session drives
type KeyClient interface {
	Init(ctx context.Context, provider tkey.PrivateKeyProvider) error
	Connect(ctx context.Context, params tkey.ConnectParams) error
	Initialize(ctx context.Context) error
	GetKeyDetails() (*tkey.KeyDetails, error)
	ReconstructKey(ctx context.Context) (*tkey.ReconstructedKey, error)
	GenerateNewShare(ctx context.Context) (*tkey.GenerateShareResult, error)
	OutputShareStore(index tkey.ShareIndex) (*tkey.ShareStore, error)
	InputShare(ctx context.Context, shareHex string) error
	PostboxKey() ([]byte, error)
	Close()
}

// ShareSerializer converts shares to and from mnemonics
type ShareSerializer interface {
	Serialize(share tkey.Share, format string) (string, error)
	Deserialize(serialized string, format string) (tkey.Share, error)
}

// DeviceStorage keeps a share on this device
type DeviceStorage interface {
	StoreDeviceShare(ctx context.Context, store *tkey.ShareStore) error
	GetDeviceShare(ctx context.Context) (*tkey.ShareStore, error)
}

// Reporter receives the diagnostic payload of every operation
type Reporter interface {
	Print(args ...any)
}

// Dependencies are the collaborators of a Controller. DeviceStorage is optional.
type Dependencies struct {
	Identity      IdentityProvider
	KeyClient     KeyClient
	Serializer    ShareSerializer
	DeviceStorage DeviceStorage
	Storage       tkey.StorageLayer
	KeyProvider   chain.PrivateKeyProvider
	Console       Reporter
	Logger        *zap.Logger
	Verifier      string
}

// Controller is the session state machine
type Controller struct {
	identity      IdentityProvider
	keyClient     KeyClient
	serializer    ShareSerializer
	deviceStorage DeviceStorage
	storage       tkey.StorageLayer
	keyProvider   chain.PrivateKeyProvider
	console       Reporter
	logger        *zap.Logger
	verifier      string

	mu             sync.Mutex
	busy           bool
	revoking       bool // logout or reset in flight
	spInitialized  bool
	keyInitialized bool
	loggedIn       bool
	requiredShares int
	user           *model.UserProfile
	provider       chain.Provider
}

// New creates a Controller
func New(deps Dependencies) (*Controller, error) {
	switch {
	case deps.Identity == nil:
		return nil, errors.New("identity provider is required")
	case deps.KeyClient == nil:
		return nil, errors.New("key client is required")
	case deps.Serializer == nil:
		return nil, errors.New("share serializer is required")
	case deps.Storage == nil:
		return nil, errors.New("storage layer is required")
	case deps.KeyProvider == nil:
		return nil, errors.New("private key provider is required")
	case deps.Verifier == "":
		return nil, errors.New("verifier is required")
	}

	c := &Controller{
		identity:      deps.Identity,
		keyClient:     deps.KeyClient,
		serializer:    deps.Serializer,
		deviceStorage: deps.DeviceStorage,
		storage:       deps.Storage,
		keyProvider:   deps.KeyProvider,
		console:       deps.Console,
		logger:        deps.Logger,
		verifier:      deps.Verifier,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.console == nil {
		c.console = nopReporter{}
	}
	return c, nil
}

type nopReporter struct{}

func (nopReporter) Print(...any) {}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

// beginRevoke is begin for operations that drop the provider. Provider
// fails with ErrBusy until end.
func (c *Controller) beginRevoke() error {
	if err := c.begin(); err != nil {
		return err
	}
	c.mu.Lock()
	c.revoking = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.revoking = false
	c.mu.Unlock()
}

// fail reports err to the console and logger and wraps it with op
func (c *Controller) fail(op string, err error) error {
	c.console.Print(err)
	c.logger.Error("session operation failed", zap.String("op", op), zap.Error(err))
	return opError(op, err)
}

// Initialize initialises the key client's service provider with the chain
// provider. Login stays disabled when it fails.
func (c *Controller) Initialize(ctx context.Context) error {
	const op = "initialize"
	if err := c.begin(); err != nil {
		return opError(op, err)
	}
	defer c.end()

	if err := c.keyClient.Init(ctx, c.keyProvider); err != nil {
		return c.fail(op, err)
	}

	c.mu.Lock()
	c.spInitialized = true
	c.mu.Unlock()

	c.logger.Info("service provider initialized")
	return nil
}

// Login signs the user in, opens the key session and reconstructs the key
// when no further shares are needed.
func (c *Controller) Login(ctx context.Context, req model.LoginRequest) (*ShareProgress, error) {
	const op = "login"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	c.mu.Lock()
	spInitialized, keyInitialized := c.spInitialized, c.keyInitialized
	c.mu.Unlock()

	if !spInitialized {
		c.console.Print("Service provider not initialized yet")
		return nil, opError(op, ErrNotInitialized)
	}
	if keyInitialized {
		return nil, c.fail(op, ErrAlreadyLoggedIn)
	}

	identity, err := c.identity.SignIn(ctx, req)
	if err != nil {
		return nil, c.fail(op, err)
	}
	if identity.UserID == "" {
		return nil, c.fail(op, ErrMissingUserID)
	}

	c.mu.Lock()
	c.user = &model.UserProfile{UID: identity.UserID, DisplayName: identity.DisplayName, Email: identity.Email}
	c.mu.Unlock()

	err = c.keyClient.Connect(ctx, tkey.ConnectParams{
		Verifier:   c.verifier,
		VerifierID: identity.UserID,
		IDToken:    identity.IDToken,
	})
	if err != nil {
		c.logout()
		return nil, c.fail(op, fmt.Errorf("failed to connect: %w", err))
	}

	if err := c.keyClient.Initialize(ctx); err != nil {
		c.logout()
		return nil, c.fail(op, fmt.Errorf("failed to initialize key: %w", err))
	}

	c.mu.Lock()
	c.keyInitialized = true
	c.mu.Unlock()

	c.logger.Info("key session opened", zap.String("verifierId", identity.UserID))

	progress, err := c.completeIfReady(ctx)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return progress, nil
}

// ReconstructKey reconstructs the key from the shares held so far
func (c *Controller) ReconstructKey(ctx context.Context) error {
	const op = "reconstructKey"
	if err := c.begin(); err != nil {
		return opError(op, err)
	}
	defer c.end()

	if err := c.requireAwaitingShares(); err != nil {
		return c.fail(op, err)
	}
	if err := c.reconstruct(ctx); err != nil {
		return c.fail(op, err)
	}
	return nil
}

// InputRecoveryShare adds a hex share and reconstructs the key once enough
// shares are held
func (c *Controller) InputRecoveryShare(ctx context.Context, shareHex string) (*ShareProgress, error) {
	const op = "inputRecoveryShare"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	if err := c.requireAwaitingShares(); err != nil {
		return nil, c.fail(op, err)
	}
	value, err := tkey.ParseShareHex(shareHex)
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("%w: %v", ErrInvalidShare, err))
	}
	clear(value)

	if err := c.keyClient.InputShare(ctx, shareHex); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to input share: %w", err))
	}

	progress, err := c.completeIfReady(ctx)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return progress, nil
}

// RecoverFromMnemonic adds a share given as a mnemonic, then behaves like
// InputRecoveryShare
func (c *Controller) RecoverFromMnemonic(ctx context.Context, mnemonic string) (*ShareProgress, error) {
	const op = "recoverFromMnemonic"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	if err := c.requireAwaitingShares(); err != nil {
		return nil, c.fail(op, err)
	}

	share, err := c.serializer.Deserialize(mnemonic, tkey.FormatMnemonic)
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("%w: %v", ErrInvalidShare, err))
	}
	shareHex := share.Hex()
	clear(share)

	if err := c.keyClient.InputShare(ctx, shareHex); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to input share: %w", err))
	}

	progress, err := c.completeIfReady(ctx)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return progress, nil
}

// ExportMnemonicShare generates a new share and returns it as a mnemonic.
// Every call adds a share index to the key.
func (c *Controller) ExportMnemonicShare(ctx context.Context) (*MnemonicExport, error) {
	const op = "exportMnemonicShare"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	if err := c.requireLoggedIn(); err != nil {
		return nil, c.fail(op, err)
	}

	store, err := c.newShare(ctx)
	if err != nil {
		return nil, c.fail(op, err)
	}
	value, err := store.Value()
	if err != nil {
		return nil, c.fail(op, err)
	}
	defer clear(value)

	mnemonic, err := c.serializer.Serialize(value, tkey.FormatMnemonic)
	if err != nil {
		return nil, c.fail(op, err)
	}

	c.logger.Warn("mnemonic export created a new share",
		zap.Uint32("shareIndex", uint32(store.ShareIndex)),
		logger.Redacted("mnemonic"),
	)
	c.console.Print("Mnemonic share exported", map[string]any{"shareIndex": store.ShareIndex})

	return &MnemonicExport{Mnemonic: mnemonic, ShareIndex: uint32(store.ShareIndex)}, nil
}

// SetDeviceShare generates a new share and stores it on this device
func (c *Controller) SetDeviceShare(ctx context.Context) (uint32, error) {
	const op = "setDeviceShare"
	if err := c.begin(); err != nil {
		return 0, opError(op, err)
	}
	defer c.end()

	if c.deviceStorage == nil {
		return 0, c.fail(op, ErrDeviceStorageDisabled)
	}
	if err := c.requireLoggedIn(); err != nil {
		return 0, c.fail(op, err)
	}

	store, err := c.newShare(ctx)
	if err != nil {
		return 0, c.fail(op, err)
	}
	if err := c.deviceStorage.StoreDeviceShare(ctx, store); err != nil {
		return 0, c.fail(op, fmt.Errorf("failed to store device share: %w", err))
	}

	c.console.Print("Device share set", map[string]any{"shareIndex": store.ShareIndex})
	return uint32(store.ShareIndex), nil
}

// GetDeviceShare loads this device's share for the current key
func (c *Controller) GetDeviceShare(ctx context.Context) (*tkey.ShareStore, error) {
	const op = "getDeviceShare"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	if c.deviceStorage == nil {
		return nil, c.fail(op, ErrDeviceStorageDisabled)
	}
	if err := c.requireKeyInitialized(); err != nil {
		return nil, c.fail(op, err)
	}

	store, err := c.deviceStorage.GetDeviceShare(ctx)
	if err != nil {
		return nil, c.fail(op, err)
	}
	if store == nil {
		return nil, c.fail(op, ErrDeviceShareNotFound)
	}

	c.console.Print("Device share found", map[string]any{"shareIndex": store.ShareIndex})
	return store, nil
}

// KeyDetails reports the key's public details
func (c *Controller) KeyDetails(ctx context.Context) (*tkey.KeyDetails, error) {
	const op = "keyDetails"
	if err := c.begin(); err != nil {
		return nil, opError(op, err)
	}
	defer c.end()

	if err := c.requireKeyInitialized(); err != nil {
		return nil, c.fail(op, err)
	}
	details, err := c.keyClient.GetKeyDetails()
	if err != nil {
		return nil, c.fail(op, err)
	}

	c.console.Print(details)
	return details, nil
}

// UserInfo returns the signed in user's profile
func (c *Controller) UserInfo() (*model.UserProfile, error) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	if user == nil {
		return nil, c.fail("userInfo", ErrNotLoggedIn)
	}
	out := *user
	c.console.Print(out)
	return &out, nil
}

// CriticalResetAccount marks the key as not found in the metadata store, so
// the next login creates a new key, then logs out. All existing shares
// become useless.
func (c *Controller) CriticalResetAccount(ctx context.Context, confirm string) error {
	const op = "criticalResetAccount"
	if err := c.beginRevoke(); err != nil {
		return opError(op, err)
	}
	defer c.end()

	if err := c.requireKeyInitialized(); err != nil {
		return c.fail(op, err)
	}
	if confirm != ResetConfirmation {
		return c.fail(op, ErrConfirmationRequired)
	}

	postbox, err := c.keyClient.PostboxKey()
	if err != nil {
		return c.fail(op, err)
	}
	defer clear(postbox)

	err = c.storage.SetMetadata(ctx, tkey.SetMetadataParams{
		PrivKey: postbox,
		Input:   &tkey.Metadata{Message: tkey.KeyNotFound},
	})
	if err != nil {
		return c.fail(op, fmt.Errorf("failed to reset metadata: %w", err))
	}

	c.logout()
	c.logger.Warn("account reset")
	c.console.Print("Reset account successful")
	return nil
}

// Logout drops the provider, the profile and the key session
func (c *Controller) Logout(ctx context.Context) error {
	const op = "logout"
	if err := c.beginRevoke(); err != nil {
		return opError(op, err)
	}
	defer c.end()

	c.logout()
	c.console.Print("Logged out")
	return nil
}

// Provider returns the signing provider, nil until the key is reconstructed.
// While a logout or reset is in flight it fails with ErrBusy.
func (c *Controller) Provider() (chain.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revoking {
		return nil, ErrBusy
	}
	return c.provider, nil
}

// Snapshot returns the current session state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.stateLocked()
	actions := append([]string{}, actionsByState[state]...)

	var user *model.UserProfile
	if c.user != nil {
		u := *c.user
		user = &u
	}

	return Snapshot{
		State:                      state,
		ServiceProviderInitialized: c.spInitialized,
		KeyInitialized:             c.keyInitialized,
		LoggedIn:                   c.loggedIn,
		Busy:                       c.busy,
		RequiredShares:             c.requiredShares,
		User:                       user,
		Actions:                    actions,
	}
}

func (c *Controller) stateLocked() State {
	switch {
	case !c.spInitialized:
		return Uninitialized
	case c.loggedIn:
		return LoggedIn
	case c.keyInitialized:
		return AwaitingShares
	default:
		return Initialized
	}
}

func (c *Controller) requireKeyInitialized() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.keyInitialized {
		return ErrKeyNotInitialized
	}
	return nil
}

func (c *Controller) requireAwaitingShares() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.keyInitialized {
		return ErrKeyNotInitialized
	}
	if c.loggedIn {
		return ErrAlreadyLoggedIn
	}
	return nil
}

func (c *Controller) requireLoggedIn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loggedIn {
		return ErrNotLoggedIn
	}
	return nil
}

// completeIfReady reconstructs the key when no more shares are required,
// otherwise it records and reports the missing count
func (c *Controller) completeIfReady(ctx context.Context) (*ShareProgress, error) {
	details, err := c.keyClient.GetKeyDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to get key details: %w", err)
	}

	c.mu.Lock()
	c.requiredShares = details.RequiredShares
	c.mu.Unlock()

	if details.RequiredShares > 0 {
		c.console.Print("Please enter your backup shares, requiredShares:", details.RequiredShares)
		return &ShareProgress{RequiredShares: details.RequiredShares}, nil
	}

	if err := c.reconstruct(ctx); err != nil {
		return nil, err
	}
	return &ShareProgress{LoggedIn: true}, nil
}

func (c *Controller) reconstruct(ctx context.Context) error {
	key, err := c.keyClient.ReconstructKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconstruct key: %w", err)
	}
	privKeyHex := hex.EncodeToString(key.PrivKey)
	clear(key.PrivKey)

	provider, err := c.keyProvider.SetupProvider(ctx, privKeyHex)
	if err != nil {
		return fmt.Errorf("failed to setup provider: %w", err)
	}

	c.mu.Lock()
	c.provider = provider
	c.loggedIn = true
	c.requiredShares = 0
	c.mu.Unlock()

	c.logger.Info("key reconstructed", logger.Redacted("privKey"))
	c.console.Print("Successfully logged in")
	return nil
}

func (c *Controller) newShare(ctx context.Context) (*tkey.ShareStore, error) {
	res, err := c.keyClient.GenerateNewShare(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate share: %w", err)
	}
	store, err := c.keyClient.OutputShareStore(res.NewShareIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to output share: %w", err)
	}
	return store, nil
}

// logout closes the key session and clears every login flag. The service
// provider stays initialized.
func (c *Controller) logout() {
	c.keyClient.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = nil
	c.loggedIn = false
	c.user = nil
	c.keyInitialized = false
	c.requiredShares = 0
}
