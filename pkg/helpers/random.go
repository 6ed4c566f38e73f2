package helpers

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
)

// Verification helpers

// KeyEmailVerification is the Redis key for a pending email verification.
// The env segment lets several deployments share one Redis.
func KeyEmailVerification(env, hashedEmail string) string {
	return "email_verification:" + env + ":" + hashedEmail
}

// KeyOAuthState is the Redis key holding the expected OAuth state for a browser.
func KeyOAuthState(env, id string) string {
	return "oauth_state:" + env + ":" + id
}

// KeyNotification is the Redis key used to send a notification at most once.
func KeyNotification(env, mark string) string {
	return "notified:" + env + ":" + mark
}

// RandomHex returns n random bytes as 2n lowercase hex characters.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashEmail returns md5(email || salt) as 32 hex characters.
func HashEmail(email, salt string) string {
	sum := md5.Sum([]byte(email + salt))
	return hex.EncodeToString(sum[:])
}
