package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securecicd/backend/pkg/crypto"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	ciphertext, err := enc.EncryptString("gho_sometoken")
	require.NoError(t, err)
	assert.NotEqual(t, "gho_sometoken", ciphertext)

	plaintext, err := enc.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "gho_sometoken", plaintext)
}

func TestEncryptor_SameKeyAcrossInstances(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	first, err := crypto.NewEncryptor(key)
	require.NoError(t, err)
	second, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	ciphertext, err := first.EncryptString("secret")
	require.NoError(t, err)

	plaintext, err := second.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "secret", plaintext)
}

func TestEncryptor_WrongKeyFails(t *testing.T) {
	enc, err := crypto.NewEncryptor("")
	require.NoError(t, err)
	other, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	ciphertext, err := enc.EncryptString("secret")
	require.NoError(t, err)

	_, err = other.DecryptString(ciphertext)
	assert.Error(t, err)
}

func TestEncryptor_RejectsBadKey(t *testing.T) {
	_, err := crypto.NewEncryptor("not-an-age-key")
	assert.Error(t, err)
}

func TestEncryptor_RejectsGarbageCiphertext(t *testing.T) {
	enc, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	_, err = enc.DecryptString("%%% not base64 %%%")
	assert.Error(t, err)

	_, err = enc.DecryptString("aGVsbG8=")
	assert.Error(t, err)
}
