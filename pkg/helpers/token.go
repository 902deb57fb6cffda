package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// resetTokenBytes is the entropy of a reset token before encoding. 40 random
// bytes hex-encode to an 80-character token.
const resetTokenBytes = 40

// NewResetToken generates a secure random password reset token.
func NewResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
