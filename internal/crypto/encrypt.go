package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for device share files
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
	//   - Maximum security while remaining compatible with mobile devices
	//   - Works on phones (4-16GB RAM) and desktops alike
	//   - Brute-force attacks remain extremely expensive
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	// DeviceShareExt is the extension of device share files
	DeviceShareExt = ".dsh"
)

// DefaultKDFParams returns the scrypt parameters used for new device share files
func DefaultKDFParams() model.KDFParams {
	return model.KDFParams{N: scryptN, R: scryptR, P: scryptP}
}

// EncryptDeviceShare encrypts a device share and writes it to a .dsh file.
// An existing file is replaced: the device keeps only its latest share.
// password must be []byte for security (caller should zero it after use)
func EncryptDeviceShare(filePath, keyID, polynomialID string, share []byte, password []byte, params model.KDFParams) error {
	// Check file extension (should be .dsh)
	if !strings.HasSuffix(filePath, DeviceShareExt) {
		return fmt.Errorf("file must have %s extension", DeviceShareExt)
	}
	if len(password) == 0 {
		return errors.New("password cannot be empty")
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return err
	}

	// Encrypt
	ciphertext := aesGCM.Seal(nil, nonce, share, []byte(keyID))

	// Create file structure
	shareFile := model.DeviceShareFile{
		KeyID:        keyID,
		PolynomialID: polynomialID,
		KDF:          params,
		Salt:         base64.StdEncoding.EncodeToString(salt),
		Nonce:        base64.StdEncoding.EncodeToString(nonce),
		CipherText:   base64.StdEncoding.EncodeToString(ciphertext),
	}

	return writeDeviceShareFile(filePath, &shareFile)
}

// writeDeviceShareFile serializes the envelope and writes it with 0600 permissions
func writeDeviceShareFile(filePath string, shareFile *model.DeviceShareFile) error {
	fileData, err := json.MarshalIndent(shareFile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal device share file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Seal encrypts plaintext with a raw 32-byte key (AES-256-GCM).
// The result is nonce || ciphertext.
func Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aesGCM.Seal(nonce, nonce, plaintext, additionalData), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
