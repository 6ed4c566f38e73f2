package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash, or an unusable marker for accounts created
// through a social provider. Email is stored case-folded.
type User struct {
	ID         string
	Email      string
	Password   string
	IsVerified bool
	IsActive   bool
	IsStaff    bool
	DateJoined time.Time
	UpdatedAt  time.Time
}

const ProviderGoogle = "google"

// ExternalIdentity binds a user to a provider subject. RawPayload is the
// encrypted provider payload and is never decrypted on the request path.
type ExternalIdentity struct {
	ID         int64
	UserID     string
	Provider   string
	SubjectID  string
	RawPayload string
	CreatedAt  time.Time
}

// Profile is the public face of a user. At most one per user.
type Profile struct {
	UserID    string
	Nickname  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
