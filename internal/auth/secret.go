package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifySecret checks a submitted admin secret against the configured one.
// A configured value starting with a bcrypt prefix is treated as a hash;
// anything else is compared constant-time.
func VerifySecret(configured, submitted string) bool {
	if configured == "" || submitted == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}
