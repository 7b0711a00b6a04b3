package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e, err := NewAesGcmEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := e.Encrypt("filemaker-admin-pass")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "filemaker-admin-pass")

	plain, err := e.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "filemaker-admin-pass", plain)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	e, err := NewAesGcmEncryptor(testKey)
	require.NoError(t, err)

	a, err := e.Encrypt("same")
	require.NoError(t, err)
	b, err := e.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsBadInput(t *testing.T) {
	e, err := NewAesGcmEncryptor(testKey)
	require.NoError(t, err)

	_, err = e.Decrypt("not base64!")
	assert.Error(t, err)

	_, err = e.Decrypt("c2hvcnQ=")
	assert.Error(t, err)

	other, err := NewAesGcmEncryptor([]byte("abcdef0123456789abcdef0123456789"))
	require.NoError(t, err)
	sealed, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = e.Decrypt(sealed)
	assert.Error(t, err)
}

func TestNewAesGcmEncryptorKeyLength(t *testing.T) {
	_, err := NewAesGcmEncryptor([]byte("short"))
	assert.Error(t, err)
}
