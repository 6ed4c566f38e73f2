package helpers

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks a password hash that can never match; bcrypt hashes
// always start with "$".
const unusablePrefix = "!"

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	if !HasUsablePassword(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UnusablePassword returns a value for accounts created through a social
// provider. It never matches any password.
func UnusablePassword() (string, error) {
	r, err := RandomHex(20)
	if err != nil {
		return "", err
	}
	return unusablePrefix + r, nil
}

func HasUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}
