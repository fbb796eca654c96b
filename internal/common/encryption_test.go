package common

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEncryptionKey(t *testing.T) {
	key := GenerateEncryptionKey()
	decoded, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	assert.NotEqual(t, key, GenerateEncryptionKey())
}

func TestInitEncryptionFailsWithoutKey(t *testing.T) {
	t.Setenv("TESSERA_ENCRYPTION_KEY", "")

	config := NewDefaultConfig()
	err := InitEncryption(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption key is not set")
}

func TestInitEncryptionGeneratesWhenAllowed(t *testing.T) {
	t.Setenv("TESSERA_ENCRYPTION_KEY", "")

	config := NewDefaultConfig()
	config.Encryption.AllowGenerated = true
	require.NoError(t, InitEncryption(config))

	// Generated key is pinned to the environment for child lookups
	assert.NotEmpty(t, os.Getenv("TESSERA_ENCRYPTION_KEY"))
}

func TestInitEncryptionRejectsBadKeys(t *testing.T) {
	config := NewDefaultConfig()

	config.Encryption.Key = "not base64 !!!"
	require.Error(t, InitEncryption(config))

	config.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("short"))
	err := InitEncryption(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	config := NewDefaultConfig()
	config.Encryption.Key = GenerateEncryptionKey()
	require.NoError(t, InitEncryption(config))

	ciphertext, err := EncryptToken("my-secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, "my-secret-token", ciphertext)

	plain, err := DecryptToken(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "my-secret-token", plain)

	// Same plaintext encrypts differently each time (random nonce)
	other, err := EncryptToken("my-secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext, other)
}

func TestDecryptTokenRejectsCorruptData(t *testing.T) {
	config := NewDefaultConfig()
	config.Encryption.Key = GenerateEncryptionKey()
	require.NoError(t, InitEncryption(config))

	_, err := DecryptToken("not base64 !!!")
	require.Error(t, err)

	_, err = DecryptToken(base64.StdEncoding.EncodeToString([]byte("too short")))
	require.Error(t, err)

	// Valid shape, wrong content
	bogus := make([]byte, 64)
	_, err = DecryptToken(base64.StdEncoding.EncodeToString(bogus))
	require.Error(t, err)
}

func TestDecryptTokenFailsAfterKeyRotation(t *testing.T) {
	config := NewDefaultConfig()
	config.Encryption.Key = GenerateEncryptionKey()
	require.NoError(t, InitEncryption(config))

	ciphertext, err := EncryptToken("secret")
	require.NoError(t, err)

	config.Encryption.Key = GenerateEncryptionKey()
	require.NoError(t, InitEncryption(config))

	_, err = DecryptToken(ciphertext)
	require.Error(t, err)
}
