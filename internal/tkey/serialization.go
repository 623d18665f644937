package tkey

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// FormatMnemonic is the only serialization format supported
const FormatMnemonic = "mnemonic"

// ShareSerializationModule converts share values to and from human
// transcribable forms. A 32-byte share maps to a 24-word BIP-39 phrase.
type ShareSerializationModule struct{}

// NewShareSerializationModule creates the module
func NewShareSerializationModule() *ShareSerializationModule {
	return &ShareSerializationModule{}
}

// Serialize encodes share in the given format
func (m *ShareSerializationModule) Serialize(share Share, format string) (string, error) {
	if format != FormatMnemonic {
		return "", fmt.Errorf("unsupported serialization format %q", format)
	}
	if len(share) != ShareLen {
		return "", fmt.Errorf("invalid share length: expected %d bytes, got %d", ShareLen, len(share))
	}
	mnemonic, err := bip39.NewMnemonic(share)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// Deserialize decodes a serialized share. Extra whitespace and letter case
// in the phrase are tolerated.
func (m *ShareSerializationModule) Deserialize(serialized string, format string) (Share, error) {
	if format != FormatMnemonic {
		return nil, fmt.Errorf("unsupported serialization format %q", format)
	}
	mnemonic := strings.Join(strings.Fields(strings.ToLower(serialized)), " ")
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	if len(entropy) != ShareLen {
		return nil, fmt.Errorf("invalid mnemonic: expected %d words", 24)
	}
	return entropy, nil
}
