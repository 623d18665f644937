// Package tkey is a threshold key client: a key is split into shares on a
// polynomial, one share is held by the service provider (sealed in the
// metadata store under the login's postbox key), one by the device, and any
// further shares are handed out as backups. Any Threshold shares reconstruct
// the key. Polynomial arithmetic is done by kyber's share package.
package tkey

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AlexZinkM/tkey-wallet/internal/crypto"

	"github.com/google/uuid"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/share"
	"go.uber.org/zap"
)

// DefaultThreshold is the number of shares needed to reconstruct a new key
const DefaultThreshold = 2

var suite = edwards25519.NewBlakeSHA256Ed25519()

var (
	ErrServiceProviderNotInitialized = errors.New("tkey: service provider not initialized")
	ErrNotConnected                  = errors.New("tkey: not connected")
	ErrNotInitialized                = errors.New("tkey: key not initialized")
	ErrNotEnoughShares               = errors.New("tkey: not enough shares to reconstruct key")
	ErrKeyNotReconstructed           = errors.New("tkey: key not reconstructed")
	ErrShareNotFound                 = errors.New("tkey: share does not belong to this key")
	ErrKeyMismatch                   = errors.New("tkey: reconstructed key does not match public key")
)

// KeyDetails describes the current key and how many shares are still missing
type KeyDetails struct {
	PubKey         string
	PolynomialID   string
	Threshold      int
	TotalShares    int
	RequiredShares int
	ShareIndexes   []ShareIndex
}

// ReconstructedKey holds the secret key bytes. Caller should zero PrivKey after use.
type ReconstructedKey struct {
	PrivKey []byte
}

// GenerateShareResult is returned by GenerateNewShare
type GenerateShareResult struct {
	NewShareIndex ShareIndex
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithThreshold sets the threshold for newly created keys
func WithThreshold(t int) Option {
	return func(c *Client) {
		c.threshold = t
	}
}

// WithDeviceStorage enables the device storage module
func WithDeviceStorage(m *DeviceStorageModule) Option {
	return func(c *Client) {
		c.deviceStorage = m
	}
}

// Client is the threshold key client for one login at a time
type Client struct {
	mu              sync.Mutex
	serviceProvider *ServiceProvider
	storage         StorageLayer
	deviceStorage   *DeviceStorageModule
	serialization   *ShareSerializationModule
	logger          *zap.Logger
	threshold       int

	metadata *Metadata
	shares   map[ShareIndex]kyber.Scalar
	privKey  kyber.Scalar
}

// New creates a Client
func New(sp *ServiceProvider, storage StorageLayer, opts ...Option) *Client {
	c := &Client{
		serviceProvider: sp,
		storage:         storage,
		serialization:   NewShareSerializationModule(),
		logger:          zap.NewNop(),
		threshold:       DefaultThreshold,
		shares:          make(map[ShareIndex]kyber.Scalar),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.deviceStorage != nil {
		c.deviceStorage.setClient(c)
	}
	return c
}

// ServiceProvider returns the client's service provider
func (c *Client) ServiceProvider() *ServiceProvider {
	return c.serviceProvider
}

// StorageLayer returns the metadata storage layer
func (c *Client) StorageLayer() StorageLayer {
	return c.storage
}

// ShareSerialization returns the share serialization module
func (c *Client) ShareSerialization() *ShareSerializationModule {
	return c.serialization
}

// DeviceStorage returns the device storage module, nil when not configured
func (c *Client) DeviceStorage() *DeviceStorageModule {
	return c.deviceStorage
}

// Init initialises the service provider with the chain-side provider
func (c *Client) Init(ctx context.Context, provider PrivateKeyProvider) error {
	return c.serviceProvider.Init(ctx, provider)
}

// Connect establishes a key session for a verified login
func (c *Client) Connect(ctx context.Context, params ConnectParams) error {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return c.serviceProvider.Connect(ctx, params)
}

// PostboxKey returns the postbox key of the current session
func (c *Client) PostboxKey() ([]byte, error) {
	return c.serviceProvider.PostboxKey()
}

// Initialize loads the key metadata for the connected login, creating a new
// key when none exists (or after a reset). For a new key the device share is
// stored through the device storage module; for an existing key the module
// tries to load a previously stored device share.
func (c *Client) Initialize(ctx context.Context) error {
	postbox, err := c.serviceProvider.PostboxKey()
	if err != nil {
		return err
	}
	defer clear(postbox)

	md, err := c.storage.GetMetadata(ctx, postbox)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}

	if md.IsKeyNotFound() {
		deviceShare, err := c.initializeNewKey(ctx, postbox)
		if err != nil {
			return err
		}
		if c.deviceStorage != nil {
			if err := c.deviceStorage.StoreDeviceShare(ctx, deviceShare); err != nil {
				return fmt.Errorf("failed to store device share: %w", err)
			}
		}
		return nil
	}

	if err := c.loadExistingKey(md, postbox); err != nil {
		return err
	}

	if c.deviceStorage != nil {
		if err := c.deviceStorage.initialize(ctx); err != nil {
			// a missing or stale device share only means more shares are required
			c.logger.Warn("device share not loaded", zap.Error(err))
		}
	}
	return nil
}

func (c *Client) initializeNewKey(ctx context.Context, postbox []byte) (*ShareStore, error) {
	secret := suite.Scalar().Pick(suite.RandomStream())
	poly := share.NewPriPoly(suite, c.threshold, secret, suite.RandomStream())

	md := &Metadata{
		PubKey:       pointHex(suite.Point().Mul(secret, nil)),
		PolynomialID: uuid.NewString(),
		Threshold:    c.threshold,
		PublicShares: make(map[ShareIndex]string),
	}

	shares := make(map[ShareIndex]kyber.Scalar)
	for _, idx := range []ShareIndex{ServiceProviderShareIndex, DeviceShareIndex} {
		s := poly.Eval(int(idx) - 1)
		shares[idx] = s.V
		md.PublicShares[idx] = pointHex(suite.Point().Mul(s.V, nil))
	}

	spShare, err := shares[ServiceProviderShareIndex].MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal service provider share: %w", err)
	}
	defer clear(spShare)

	sealed, err := crypto.Seal(postbox, spShare, []byte(md.PolynomialID))
	if err != nil {
		return nil, fmt.Errorf("failed to seal service provider share: %w", err)
	}
	md.ServiceProviderShare = base64.StdEncoding.EncodeToString(sealed)

	if err := c.storage.SetMetadata(ctx, SetMetadataParams{PrivKey: postbox, Input: md}); err != nil {
		return nil, fmt.Errorf("failed to set metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = md
	c.shares = shares
	c.privKey = secret

	c.logger.Info("new key initialized",
		zap.String("pubKey", md.PubKey),
		zap.String("polynomialID", md.PolynomialID),
		zap.Int("threshold", md.Threshold),
	)

	return c.shareStoreLocked(DeviceShareIndex)
}

func (c *Client) loadExistingKey(md *Metadata, postbox []byte) error {
	sealed, err := base64.StdEncoding.DecodeString(md.ServiceProviderShare)
	if err != nil {
		return fmt.Errorf("failed to decode service provider share: %w", err)
	}
	raw, err := crypto.Open(postbox, sealed, []byte(md.PolynomialID))
	if err != nil {
		return fmt.Errorf("failed to open service provider share: %w", err)
	}
	defer clear(raw)

	v := suite.Scalar()
	if err := v.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("invalid service provider share: %w", err)
	}
	if md.PublicShares[ServiceProviderShareIndex] != pointHex(suite.Point().Mul(v, nil)) {
		return ErrShareNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = md
	c.shares = map[ShareIndex]kyber.Scalar{ServiceProviderShareIndex: v}
	c.privKey = nil

	c.logger.Info("existing key loaded",
		zap.String("pubKey", md.PubKey),
		zap.Int("threshold", md.Threshold),
		zap.Int("totalShares", len(md.PublicShares)),
	)
	return nil
}

// GetKeyDetails reports the key's public data and missing share count
func (c *Client) GetKeyDetails() (*KeyDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata == nil {
		return nil, ErrNotInitialized
	}

	required := c.metadata.Threshold - len(c.shares)
	if required < 0 {
		required = 0
	}

	return &KeyDetails{
		PubKey:         c.metadata.PubKey,
		PolynomialID:   c.metadata.PolynomialID,
		Threshold:      c.metadata.Threshold,
		TotalShares:    len(c.metadata.PublicShares),
		RequiredShares: required,
		ShareIndexes:   sortedIndexes(c.metadata.PublicShares),
	}, nil
}

// ReconstructKey recovers the secret from the shares held so far
func (c *Client) ReconstructKey(ctx context.Context) (*ReconstructedKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata == nil {
		return nil, ErrNotInitialized
	}
	if len(c.shares) < c.metadata.Threshold {
		return nil, ErrNotEnoughShares
	}

	priShares := c.priSharesLocked()
	secret, err := share.RecoverSecret(suite, priShares, c.metadata.Threshold, len(priShares))
	if err != nil {
		return nil, fmt.Errorf("failed to recover secret: %w", err)
	}
	if pointHex(suite.Point().Mul(secret, nil)) != c.metadata.PubKey {
		return nil, ErrKeyMismatch
	}

	privKey, err := secret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}
	c.privKey = secret
	return &ReconstructedKey{PrivKey: privKey}, nil
}

// GenerateNewShare evaluates the key polynomial at the next free index and
// records the new share's public commitment in the metadata store. The key
// must be reconstructed first.
func (c *Client) GenerateNewShare(ctx context.Context) (*GenerateShareResult, error) {
	postbox, err := c.serviceProvider.PostboxKey()
	if err != nil {
		return nil, err
	}
	defer clear(postbox)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata == nil {
		return nil, ErrNotInitialized
	}
	if c.privKey == nil {
		return nil, ErrKeyNotReconstructed
	}

	priShares := c.priSharesLocked()
	poly, err := share.RecoverPriPoly(suite, priShares, c.metadata.Threshold, len(priShares))
	if err != nil {
		return nil, fmt.Errorf("failed to recover polynomial: %w", err)
	}

	indexes := sortedIndexes(c.metadata.PublicShares)
	newIndex := indexes[len(indexes)-1] + 1
	s := poly.Eval(int(newIndex) - 1)

	md := c.metadata.clone()
	md.PublicShares[newIndex] = pointHex(suite.Point().Mul(s.V, nil))
	md.Nonce++

	if err := c.storage.SetMetadata(ctx, SetMetadataParams{PrivKey: postbox, Input: md}); err != nil {
		return nil, fmt.Errorf("failed to set metadata: %w", err)
	}

	c.metadata = md
	c.shares[newIndex] = s.V

	c.logger.Info("new share generated",
		zap.Uint32("shareIndex", uint32(newIndex)),
		zap.Int("totalShares", len(md.PublicShares)),
	)
	return &GenerateShareResult{NewShareIndex: newIndex}, nil
}

// OutputShareStore returns a share the client holds
func (c *Client) OutputShareStore(index ShareIndex) (*ShareStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		return nil, ErrNotInitialized
	}
	return c.shareStoreLocked(index)
}

func (c *Client) shareStoreLocked(index ShareIndex) (*ShareStore, error) {
	v, ok := c.shares[index]
	if !ok {
		return nil, fmt.Errorf("share %d not available: %w", index, ErrShareNotFound)
	}
	raw, err := v.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal share: %w", err)
	}
	return &ShareStore{
		Share:        hex.EncodeToString(raw),
		ShareIndex:   index,
		PolynomialID: c.metadata.PolynomialID,
	}, nil
}

// InputShare adds a hex share value. Its index is found by matching the
// share's public commitment against the metadata.
func (c *Client) InputShare(ctx context.Context, shareHex string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := ParseShareHex(shareHex)
	if err != nil {
		return err
	}
	defer clear(value)

	v := suite.Scalar()
	if err := v.UnmarshalBinary(value); err != nil {
		return fmt.Errorf("invalid share: %w", err)
	}
	commitment := pointHex(suite.Point().Mul(v, nil))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata == nil {
		return ErrNotInitialized
	}
	for idx, pub := range c.metadata.PublicShares {
		if pub == commitment {
			c.shares[idx] = v
			c.logger.Debug("share input", zap.Uint32("shareIndex", uint32(idx)))
			return nil
		}
	}
	return ErrShareNotFound
}

// indexOf finds the index whose public commitment matches a share value
func (c *Client) indexOf(value []byte) (ShareIndex, error) {
	v := suite.Scalar()
	if err := v.UnmarshalBinary(value); err != nil {
		return 0, fmt.Errorf("invalid share: %w", err)
	}
	commitment := pointHex(suite.Point().Mul(v, nil))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata == nil {
		return 0, ErrNotInitialized
	}
	for idx, pub := range c.metadata.PublicShares {
		if pub == commitment {
			return idx, nil
		}
	}
	return 0, ErrShareNotFound
}

// InputShareStore adds a share store, checking its polynomial and index
func (c *Client) InputShareStore(ctx context.Context, store *ShareStore) error {
	c.mu.Lock()
	md := c.metadata
	c.mu.Unlock()

	if md == nil {
		return ErrNotInitialized
	}
	if store.PolynomialID != md.PolynomialID {
		return fmt.Errorf("polynomial %s is not current: %w", store.PolynomialID, ErrShareNotFound)
	}
	if _, ok := md.PublicShares[store.ShareIndex]; !ok {
		return fmt.Errorf("unknown share index %d: %w", store.ShareIndex, ErrShareNotFound)
	}
	return c.InputShare(ctx, store.Share)
}

// metadataKeyID returns the storage id of the current session
func (c *Client) metadataKeyID() (string, string, error) {
	postbox, err := c.serviceProvider.PostboxKey()
	if err != nil {
		return "", "", err
	}
	defer clear(postbox)

	keyID, err := MetadataKeyID(postbox)
	if err != nil {
		return "", "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		return "", "", ErrNotInitialized
	}
	return keyID, c.metadata.PolynomialID, nil
}

// Close drops the key session: shares, reconstructed key and postbox key
func (c *Client) Close() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.serviceProvider.Disconnect()
}

func (c *Client) resetLocked() {
	for _, v := range c.shares {
		v.Zero()
	}
	if c.privKey != nil {
		c.privKey.Zero()
	}
	c.shares = make(map[ShareIndex]kyber.Scalar)
	c.privKey = nil
	c.metadata = nil
}

func (c *Client) priSharesLocked() []*share.PriShare {
	out := make([]*share.PriShare, 0, len(c.shares))
	for idx, v := range c.shares {
		out = append(out, priShare(idx, v))
	}
	return out
}

func sortedIndexes(m map[ShareIndex]string) []ShareIndex {
	out := make([]ShareIndex, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func pointHex(p kyber.Point) string {
	raw, err := p.MarshalBinary()
	if err != nil {
		// edwards25519 points always marshal
		panic(err)
	}
	return hex.EncodeToString(raw)
}
