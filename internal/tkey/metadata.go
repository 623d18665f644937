package tkey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// KeyNotFound is the metadata message written by a critical reset
const KeyNotFound = "KEY_NOT_FOUND"

// Metadata is the per-user record kept by the storage layer. It holds only
// public data and the service provider share sealed under the postbox key.
type Metadata struct {
	PubKey               string                `json:"pubKey,omitempty"`
	PolynomialID         string                `json:"polynomialID,omitempty"`
	Threshold            int                   `json:"threshold,omitempty"`
	PublicShares         map[ShareIndex]string `json:"publicShares,omitempty"`
	ServiceProviderShare string                `json:"serviceProviderShare,omitempty"` // base64(nonce || ciphertext)
	Nonce                int                   `json:"nonce"`
	Message              string                `json:"message,omitempty"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// IsKeyNotFound reports whether the record describes no usable key
func (m *Metadata) IsKeyNotFound() bool {
	return m == nil || m.Message == KeyNotFound || m.PubKey == ""
}

// clone returns a deep copy so callers cannot mutate the client's view
func (m *Metadata) clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	out.PublicShares = make(map[ShareIndex]string, len(m.PublicShares))
	for k, v := range m.PublicShares {
		out.PublicShares[k] = v
	}
	return &out
}

// SetMetadataParams mirrors the storage layer's write call: the record is
// stored under the key derived from PrivKey.
type SetMetadataParams struct {
	PrivKey []byte
	Input   *Metadata
}

// StorageLayer persists metadata keyed by a private key
type StorageLayer interface {
	// GetMetadata returns nil, nil when nothing is stored for privKey
	GetMetadata(ctx context.Context, privKey []byte) (*Metadata, error)
	SetMetadata(ctx context.Context, params SetMetadataParams) error
}

// MetadataKeyID derives the storage id for a private key: the hex sha256 of
// its public point.
func MetadataKeyID(privKey []byte) (string, error) {
	if len(privKey) != ShareLen {
		return "", fmt.Errorf("invalid metadata key length: expected %d bytes", ShareLen)
	}
	s := suite.Scalar()
	if err := s.UnmarshalBinary(privKey); err != nil {
		return "", fmt.Errorf("invalid metadata key: %w", err)
	}
	pub, err := suite.Point().Mul(s, nil).MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata public key: %w", err)
	}
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:]), nil
}

var errEmptyInput = errors.New("metadata input is required")

func validateSetParams(params SetMetadataParams) (string, error) {
	if params.Input == nil {
		return "", errEmptyInput
	}
	return MetadataKeyID(params.PrivKey)
}
