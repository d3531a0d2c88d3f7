package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mergington/go-activity-server/pkce"
)

func TestGenerateProducesValidS256Pair(t *testing.T) {
	for i := 0; i < 100; i++ {
		verifier, challenge, err := pkce.Generate()
		require.NoError(t, err)

		sum := sha256.Sum256([]byte(verifier))
		require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
	}
}

func TestVerifierMeetsRFCLength(t *testing.T) {
	verifier, err := pkce.GenerateVerifier()
	require.NoError(t, err)

	// RFC 7636 requires 43-128 characters
	require.GreaterOrEqual(t, len(verifier), 43)
	require.LessOrEqual(t, len(verifier), 128)

	// URL-safe alphabet, no padding
	_, err = base64.RawURLEncoding.DecodeString(verifier)
	require.NoError(t, err)
}

func TestSuccessiveVerifiersDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		verifier, err := pkce.GenerateVerifier()
		require.NoError(t, err)
		require.False(t, seen[verifier], "verifier repeated")
		seen[verifier] = true
	}
}

func TestChallengeIsDeterministic(t *testing.T) {
	// RFC 7636 appendix B test vector
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	const challenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	require.Equal(t, challenge, pkce.Challenge(verifier))
	require.Equal(t, pkce.Challenge(verifier), pkce.Challenge(verifier))
}

func TestRandomTokenLengthAndUniqueness(t *testing.T) {
	a, err := pkce.RandomToken(32)
	require.NoError(t, err)
	b, err := pkce.RandomToken(32)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Len(t, a, 43) // 32 bytes base64url, no padding
}
