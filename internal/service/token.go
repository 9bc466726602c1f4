package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"alcyxob/coach-app/internal/domain"
)

// invitationTokenBytes encodes to 64 URL-safe characters.
const invitationTokenBytes = 48

// newToken returns a random URL-safe token of at least
// domain.MinInvitationTokenLength characters.
func newToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	if len(token) < domain.MinInvitationTokenLength {
		return "", fmt.Errorf("generate token: %d chars is too short", len(token))
	}
	return token, nil
}

// hashToken is how password setup tokens are stored, so a database read does
// not hand out usable links.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
