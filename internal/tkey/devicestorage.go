package tkey

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/tkey-wallet/internal/crypto"
	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"go.uber.org/zap"
)

// PasswordFunc returns the device share passphrase. Caller zeroes the result.
type PasswordFunc func() ([]byte, error)

// DeviceStorageModule keeps this device's share in an encrypted file per key
type DeviceStorageModule struct {
	dir      string
	password PasswordFunc
	kdf      model.KDFParams
	logger   *zap.Logger
	client   *Client
}

// NewDeviceStorageModule creates the module storing files under dir
func NewDeviceStorageModule(dir string, password PasswordFunc, kdf model.KDFParams, logger *zap.Logger) *DeviceStorageModule {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceStorageModule{dir: dir, password: password, kdf: kdf, logger: logger}
}

func (m *DeviceStorageModule) setClient(c *Client) {
	m.client = c
}

func (m *DeviceStorageModule) path(keyID string) string {
	return filepath.Join(m.dir, keyID+crypto.DeviceShareExt)
}

// StoreDeviceShare writes store as this device's share for the current key
func (m *DeviceStorageModule) StoreDeviceShare(ctx context.Context, store *ShareStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keyID, polyID, err := m.client.metadataKeyID()
	if err != nil {
		return err
	}
	if store.PolynomialID != polyID {
		return fmt.Errorf("share polynomial %s is not current: %w", store.PolynomialID, ErrShareNotFound)
	}

	value, err := store.Value()
	if err != nil {
		return err
	}
	defer clear(value)

	password, err := m.password()
	if err != nil {
		return fmt.Errorf("failed to get device share passphrase: %w", err)
	}
	defer clear(password)

	if err := crypto.EncryptDeviceShare(m.path(keyID), keyID, polyID, value, password, m.kdf); err != nil {
		return err
	}

	m.logger.Info("device share stored", zap.Uint32("shareIndex", uint32(store.ShareIndex)))
	return nil
}

// GetDeviceShare loads this device's share for the current key. It returns
// nil, nil when the device holds no share for it.
func (m *DeviceStorageModule) GetDeviceShare(ctx context.Context) (*ShareStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyID, polyID, err := m.client.metadataKeyID()
	if err != nil {
		return nil, err
	}

	password, err := m.password()
	if err != nil {
		return nil, fmt.Errorf("failed to get device share passphrase: %w", err)
	}
	defer clear(password)

	shareFile, value, err := crypto.DecryptDeviceShare(m.path(keyID), password)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read device share: %w", err)
	}
	defer clear(value)

	if shareFile.PolynomialID != polyID {
		m.logger.Warn("stale device share ignored", zap.String("polynomialID", shareFile.PolynomialID))
		return nil, nil
	}

	index, err := m.client.indexOf(value)
	if err != nil {
		return nil, err
	}

	return &ShareStore{
		Share:        Share(value).Hex(),
		ShareIndex:   index,
		PolynomialID: polyID,
	}, nil
}

// initialize inputs the stored device share, if any
func (m *DeviceStorageModule) initialize(ctx context.Context) error {
	store, err := m.GetDeviceShare(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	return m.client.InputShareStore(ctx, store)
}
