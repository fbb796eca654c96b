package common

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// encryptionKeyEnv is the environment variable holding the base64 token key.
const encryptionKeyEnv = "TESSERA_ENCRYPTION_KEY"

var (
	cipherMutex sync.RWMutex
	tokenKey    []byte
)

// GenerateEncryptionKey returns a new random key encoded as base64.
func GenerateEncryptionKey() string {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to read random key material: %v", err))
	}
	return base64.StdEncoding.EncodeToString(key)
}

// InitEncryption resolves the process-wide token encryption key. The key
// must come from configuration or TESSERA_ENCRYPTION_KEY; a missing key is
// an error unless allow_generated is set, in which case a fresh key is
// generated and pinned in the process environment for the remainder of the
// process lifetime. Generated keys do not survive restarts, so previously
// stored tokens become undecipherable - acceptable for development only.
func InitEncryption(config *Config) error {
	cipherMutex.Lock()
	defer cipherMutex.Unlock()

	encoded := config.Encryption.Key
	if encoded == "" {
		encoded = os.Getenv(encryptionKeyEnv)
	}

	if encoded == "" {
		if !config.Encryption.AllowGenerated {
			return fmt.Errorf("encryption key is not set: provide %s or [encryption] key, or enable allow_generated for development", encryptionKeyEnv)
		}
		encoded = GenerateEncryptionKey()
		if err := os.Setenv(encryptionKeyEnv, encoded); err != nil {
			return fmt.Errorf("failed to pin generated encryption key: %w", err)
		}
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	tokenKey = key
	return nil
}

// EncryptToken encrypts a plaintext token for storage at rest. The result
// is base64 text: nonce followed by the AEAD ciphertext.
func EncryptToken(plaintext string) (string, error) {
	key, err := currentKey()
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptToken decrypts a stored token. Corrupt data or a rotated key
// yields an error; callers decide how to degrade.
func DecryptToken(ciphertext string) (string, error) {
	key, err := currentKey()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("stored token is not valid base64: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("stored token is truncated")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}

	return string(plain), nil
}

func currentKey() ([]byte, error) {
	cipherMutex.RLock()
	key := tokenKey
	cipherMutex.RUnlock()

	if key != nil {
		return key, nil
	}

	// Fall back to the environment so tests and tools that never call
	// InitEncryption still resolve an externally pinned key.
	encoded := os.Getenv(encryptionKeyEnv)
	if encoded == "" {
		return nil, fmt.Errorf("encryption key is not initialized")
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(decoded) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(decoded))
	}

	cipherMutex.Lock()
	tokenKey = decoded
	cipherMutex.Unlock()

	return decoded, nil
}
