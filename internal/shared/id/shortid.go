// Package id generates Stripe-style prefixed short identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for entity types.
const (
	PrefixConnection = "conn"
	PrefixAdAccount  = "acct"
)

// Generate creates a random base62 short ID of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}
	return string(result), nil
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	s, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return s
}

// GenerateWithPrefix creates an ID in the form "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, s), nil
}

// MustGenerateWithPrefix creates a prefixed ID and panics on error.
func MustGenerateWithPrefix(prefix string, length int) string {
	s, err := GenerateWithPrefix(prefix, length)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse splits a prefixed ID and verifies the expected prefix.
func Parse(prefixed, wantPrefix string) (string, error) {
	prefix, short, ok := strings.Cut(prefixed, "_")
	if !ok || prefix != wantPrefix || short == "" {
		return "", fmt.Errorf("invalid %s id: %q", wantPrefix, prefixed)
	}
	return short, nil
}

// ParseConnectionID extracts the short ID from a "conn_..." identifier.
func ParseConnectionID(prefixed string) (string, error) {
	return Parse(prefixed, PrefixConnection)
}

// ParseAdAccountID extracts the short ID from an "acct_..." identifier.
func ParseAdAccountID(prefixed string) (string, error) {
	return Parse(prefixed, PrefixAdAccount)
}
