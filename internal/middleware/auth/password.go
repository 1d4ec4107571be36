package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewConfirmationCode returns a fresh one-off confirmation code.
func NewConfirmationCode() string {
	return uuid.NewString()
}

// HashCode creates a bcrypt hash from the given plaintext confirmation code.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyCode reports whether the provided code matches the stored bcrypt hash.
// An empty hash never matches.
func VerifyCode(hashedCode, providedCode string) bool {
	if hashedCode == "" || providedCode == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode)) == nil
}
