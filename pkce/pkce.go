// Package pkce implements the Proof Key for Code Exchange S256 method
// (RFC 7636) used to bind authorization codes to the login attempt that
// requested them.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

// verifierBytes is the entropy per code verifier. 32 bytes base64url-encodes
// to 43 characters, the RFC minimum verifier length.
const verifierBytes = 32

// Generate produces a fresh (verifier, challenge) pair. The challenge is
// base64url(SHA-256(verifier)) without padding, per the S256 method.
func Generate() (verifier, challenge string, err error) {
	verifier, err = GenerateVerifier()
	if err != nil {
		return "", "", err
	}
	return verifier, Challenge(verifier), nil
}

// GenerateVerifier returns a cryptographically random URL-safe verifier.
// It fails only if the platform entropy source is unavailable.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.Wrapf(err, "[pkce GenerateVerifier] reading entropy")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Challenge derives the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RandomToken returns a random base64url string built from n bytes of
// entropy. Used for state parameters and session identifiers.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.Wrapf(err, "[pkce RandomToken] reading entropy")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
