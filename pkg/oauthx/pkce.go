package oauthx

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// PKCE constants per RFC 7636. Only the S256 transformation is supported;
// OAuth 2.1 drops the plain method.
const (
	CodeChallengeMethodS256 = "S256"

	// MinVerifierLength and MaxVerifierLength bound both code_verifier and
	// code_challenge values.
	MinVerifierLength = 43
	MaxVerifierLength = 128

	verifierEntropyBytes = 32
)

// ValidateFormat reports whether a PKCE value (code_verifier or
// code_challenge) is 43-128 characters drawn from the unreserved set
// [A-Za-z0-9-._~]. Empty strings are rejected.
func ValidateFormat(value string) bool {
	if len(value) < MinVerifierLength || len(value) > MaxVerifierLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_' || c == '~':
		default:
			return false
		}
	}
	return true
}

// VerifyS256 reports whether codeVerifier proves possession of the secret
// committed to by codeChallenge: base64url(sha256(verifier)) == challenge.
// Returns false if either input is empty. The comparison is constant time so
// the digest cannot be recovered byte-by-byte through timing.
func VerifyS256(codeVerifier, codeChallenge string) bool {
	if codeVerifier == "" || codeChallenge == "" {
		return false
	}

	sum := sha256.Sum256([]byte(codeVerifier))
	expected := base64.RawURLEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(codeChallenge)) == 1
}

// GenerateVerifier creates a random 43-character code_verifier. Client-side
// helper; the server never generates verifiers.
func GenerateVerifier() (string, error) {
	buf := make([]byte, verifierEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ChallengeS256 computes the S256 code_challenge for a verifier.
func ChallengeS256(codeVerifier string) string {
	sum := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
