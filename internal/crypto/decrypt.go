package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"golang.org/x/crypto/scrypt"
)

// ErrInvalidPassword is returned when authentication of a sealed payload fails
var ErrInvalidPassword = errors.New("invalid password")

// DecryptDeviceShare reads and decrypts a .dsh file
// password must be []byte for security (caller should zero it after use)
// Caller should zero the returned share after use.
func DecryptDeviceShare(filePath string, password []byte) (*model.DeviceShareFile, []byte, error) {
	shareFile, err := ReadDeviceShareFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	// Decode salt and nonce
	salt, err := base64.StdEncoding.DecodeString(shareFile.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(shareFile.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(shareFile.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, shareFile.KDF.N, shareFile.KDF.R, shareFile.KDF.P, scryptKeyLen)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	// Decrypt
	share, err := aesGCM.Open(nil, nonce, ciphertext, []byte(shareFile.KeyID))
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}

	return shareFile, share, nil
}

// ReadDeviceShareFile reads the envelope of a .dsh file (without decryption)
func ReadDeviceShareFile(filePath string) (*model.DeviceShareFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %w", os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var shareFile model.DeviceShareFile
	if err := json.Unmarshal(fileData, &shareFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device share file: %w", err)
	}

	return &shareFile, nil
}

// ReencryptDeviceShare decrypts a .dsh file with oldPassword and rewrites it
// under newPassword with a fresh salt and nonce.
func ReencryptDeviceShare(filePath string, oldPassword, newPassword []byte, params model.KDFParams) error {
	shareFile, share, err := DecryptDeviceShare(filePath, oldPassword)
	if err != nil {
		return fmt.Errorf("failed to decrypt device share: %w", err)
	}
	defer clear(share) // wipe decrypted bytes from memory

	return EncryptDeviceShare(filePath, shareFile.KeyID, shareFile.PolynomialID, share, newPassword, params)
}

// Open reverses Seal.
func Open(key, sealed, additionalData []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aesGCM.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}

	nonce, ciphertext := sealed[:aesGCM.NonceSize()], sealed[aesGCM.NonceSize():]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}
