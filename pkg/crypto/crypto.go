package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

var encryptionKey []byte

// SetEncryptionKey derives the AES-256 key used for credential storage from
// the given passphrase. Passing an empty string disables encryption and
// values are stored as plain text.
func SetEncryptionKey(passphrase string) error {
	if passphrase == "" {
		encryptionKey = nil
		return nil
	}
	sum := sha256.Sum256([]byte(passphrase))
	encryptionKey = sum[:]
	return nil
}

// IsConfigured reports whether an encryption key has been set.
func IsConfigured() bool {
	return len(encryptionKey) > 0
}

// Encrypt encrypts a value with AES-GCM and returns it base64 encoded.
// Without a configured key the value passes through unchanged.
func Encrypt(plainText string) (string, error) {
	if len(encryptionKey) == 0 {
		return plainText, nil
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Values that do not decode as base64 or are too
// short to carry a nonce are returned as-is so that rows written before the
// key was configured keep working.
func Decrypt(cipherText string) (string, error) {
	if len(encryptionKey) == 0 {
		return cipherText, nil
	}

	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return cipherText, nil
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return cipherText, nil
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
