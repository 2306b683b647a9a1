// Package vault seals platform access tokens before they reach persistence.
package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-ads/meridian/internal/shared/config"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

const ciphertextPrefix = "v1:"

// ErrEncryptionUnavailable is returned by Store when no encryption key is
// configured and plaintext fallback is not allowed. Callers must never treat
// this as a sealed token.
var ErrEncryptionUnavailable = errors.New("token encryption unavailable: no key configured")

// TokenVault encrypts and reveals access tokens. When no key is configured
// and the deployment explicitly opted in, Store returns the raw token with
// plaintext=true so the fallback is a recorded decision, never a silent one.
type TokenVault struct {
	cipher         *aeadCipher
	allowPlaintext bool
	logger         logger.Interface
}

// New builds a vault from configuration. An invalid key is a hard error; a
// missing key only degrades to plaintext when AllowPlaintext is set.
func New(cfg *config.VaultConfig, log logger.Interface) (*TokenVault, error) {
	v := &TokenVault{allowPlaintext: cfg.AllowPlaintext, logger: log.Named("vault")}

	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decode vault encryption key: %w", err)
		}
		c, err := newAEADCipher(key)
		if err != nil {
			return nil, err
		}
		v.cipher = c
	}
	return v, nil
}

// Store seals a raw token. The second return reports whether the stored value
// is plaintext (only possible with the explicit config opt-in).
func (v *TokenVault) Store(rawToken string) (string, bool, error) {
	if rawToken == "" {
		return "", false, fmt.Errorf("raw token is empty")
	}
	if v.cipher == nil {
		if !v.allowPlaintext {
			return "", false, ErrEncryptionUnavailable
		}
		v.logger.Warnw("storing access token as plaintext: no encryption key configured")
		return rawToken, true, nil
	}

	sealed, err := v.cipher.seal([]byte(rawToken))
	if err != nil {
		return "", false, fmt.Errorf("seal token: %w", err)
	}
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), false, nil
}

// Reveal returns the raw token for a stored value.
func (v *TokenVault) Reveal(stored string, isPlaintext bool) (string, error) {
	if isPlaintext {
		return stored, nil
	}
	if v.cipher == nil {
		return "", ErrEncryptionUnavailable
	}
	encoded, ok := strings.CutPrefix(stored, ciphertextPrefix)
	if !ok {
		return "", fmt.Errorf("unrecognized ciphertext format")
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	raw, err := v.cipher.open(sealed)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
