package entity

import "time"

// OutstandingToken records an issued refresh token.
type OutstandingToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BlacklistedToken is a jti revoked before its natural expiry.
type BlacklistedToken struct {
	JTI           string
	UserID        string
	ExpiresAt     time.Time
	BlacklistedAt time.Time
}
