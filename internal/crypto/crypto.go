// Package crypto seals token records at rest. The key is derived from
// machine-local data; file permissions remain the access control.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// EncryptedPrefix is the prefix used to identify encrypted values
const EncryptedPrefix = "ENC:"

// ErrEmptyNamespace is returned when no namespace is given for key derivation.
var ErrEmptyNamespace = errors.New("key namespace cannot be empty")

// KeyManager seals and opens token values.
type KeyManager struct {
	aead cipher.AEAD
}

// NewKeyManager creates a KeyManager whose key is derived from the user's
// home directory, the hostname, and namespace.
func NewKeyManager(namespace string) (*KeyManager, error) {
	key, err := deriveKey(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	return newKeyManager(key)
}

func newKeyManager(key []byte) (*KeyManager, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &KeyManager{aead: gcm}, nil
}

func deriveKey(namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, ErrEmptyNamespace
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	secret := []byte(homeDir + "\x00" + hostname)
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, secret, []byte(namespace), []byte("token-key-v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext and returns it base64 encoded with EncryptedPrefix.
// An empty plaintext stays empty.
func (km *KeyManager) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, km.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := km.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. The prefix is optional.
func (km *KeyManager) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := km.aead.NonceSize()
	if len(decoded) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := km.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// Reveal returns value decrypted when it carries EncryptedPrefix, and value
// unchanged otherwise, so hand-written plaintext records keep working.
func (km *KeyManager) Reveal(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	return km.Decrypt(value)
}

// IsEncrypted checks if a string appears to be encrypted
func IsEncrypted(value string) bool {
	if !strings.HasPrefix(value, EncryptedPrefix) {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return false
	}

	// 12-byte GCM nonce plus 16-byte tag plus at least one byte
	return len(decoded) >= 29
}
