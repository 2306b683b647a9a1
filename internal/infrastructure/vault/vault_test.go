package vault

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ads/meridian/internal/shared/config"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestTokenVault_SealRoundTrip(t *testing.T) {
	v, err := New(&config.VaultConfig{EncryptionKey: testKey(t)}, logger.NewLogger())
	require.NoError(t, err)

	stored, plaintext, err := v.Store("EAAB-short-lived-token")
	require.NoError(t, err)
	assert.False(t, plaintext)
	assert.NotEqual(t, "EAAB-short-lived-token", stored)
	assert.Contains(t, stored, "v1:")

	raw, err := v.Reveal(stored, false)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-short-lived-token", raw)
}

func TestTokenVault_NoKeyWithoutOptInFails(t *testing.T) {
	v, err := New(&config.VaultConfig{}, logger.NewLogger())
	require.NoError(t, err)

	_, _, err = v.Store("raw")
	assert.ErrorIs(t, err, ErrEncryptionUnavailable)
}

func TestTokenVault_PlaintextFallbackIsExplicit(t *testing.T) {
	v, err := New(&config.VaultConfig{AllowPlaintext: true}, logger.NewLogger())
	require.NoError(t, err)

	stored, plaintext, err := v.Store("raw-token")
	require.NoError(t, err)
	assert.True(t, plaintext)
	assert.Equal(t, "raw-token", stored)

	raw, err := v.Reveal(stored, true)
	require.NoError(t, err)
	assert.Equal(t, "raw-token", raw)
}

func TestTokenVault_InvalidKeyRejected(t *testing.T) {
	_, err := New(&config.VaultConfig{EncryptionKey: "not-base64!!"}, logger.NewLogger())
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = New(&config.VaultConfig{EncryptionKey: short}, logger.NewLogger())
	assert.Error(t, err)
}

func TestTokenVault_TamperedCiphertextRejected(t *testing.T) {
	v, err := New(&config.VaultConfig{EncryptionKey: testKey(t)}, logger.NewLogger())
	require.NoError(t, err)

	stored, _, err := v.Store("token")
	require.NoError(t, err)

	tampered := stored[:len(stored)-4] + "AAAA"
	_, err = v.Reveal(tampered, false)
	assert.Error(t, err)
}
