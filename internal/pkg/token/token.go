package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// NewRefreshToken generates a cryptographically random 64-character hex token.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// FromAuthorization extracts the credential from an "Authorization: Bearer <token>" value.
// The scheme match is case-insensitive.
func FromAuthorization(value string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
