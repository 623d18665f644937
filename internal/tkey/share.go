package tkey

import (
	"encoding/hex"
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
)

// ShareIndex is the x-coordinate a share was evaluated at. Index 1 is held by
// the service provider, index 2 by the first device; later indexes are
// created by GenerateNewShare.
type ShareIndex uint32

const (
	ServiceProviderShareIndex ShareIndex = 1
	DeviceShareIndex          ShareIndex = 2
)

// ShareLen is the byte length of a share value
const ShareLen = 32

// Share is the 32-byte value of a share, without its index
type Share []byte

// Hex returns the share as 64 lowercase hex chars
func (s Share) Hex() string {
	return hex.EncodeToString(s)
}

// ParseShareHex decodes a hex share value
func ParseShareHex(s string) (Share, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid share hex: %w", err)
	}
	if len(raw) != ShareLen {
		return nil, fmt.Errorf("invalid share length: expected %d bytes, got %d", ShareLen, len(raw))
	}
	return raw, nil
}

// ShareStore is a share together with the polynomial position it belongs to
type ShareStore struct {
	Share        string     `json:"share"` // hex
	ShareIndex   ShareIndex `json:"shareIndex"`
	PolynomialID string     `json:"polynomialID"`
}

// Value decodes the share value
func (s *ShareStore) Value() (Share, error) {
	return ParseShareHex(s.Share)
}

// priShare maps a tkey index onto kyber's zero-based share index
func priShare(idx ShareIndex, v kyber.Scalar) *share.PriShare {
	return &share.PriShare{I: int(idx) - 1, V: v}
}
