package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// aeadCipher seals and opens token material with ChaCha20-Poly1305.
// Ciphertext layout: [nonce][ciphertext+tag].
type aeadCipher struct {
	aead      cipher.AEAD
	nonceSize int
}

func newAEADCipher(key []byte) (*aeadCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("create chacha20poly1305 cipher: %w", err)
	}
	return &aeadCipher{aead: aead, nonceSize: aead.NonceSize()}, nil
}

func (c *aeadCipher) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *aeadCipher) open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.nonceSize {
		return nil, fmt.Errorf("ciphertext too short: got %d, need at least %d", len(ciphertext), c.nonceSize)
	}
	nonce, encrypted := ciphertext[:c.nonceSize], ciphertext[c.nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
