package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

// VerificationRecord is the value held for a pending email verification.
type VerificationRecord struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// VerificationStore is an expiring KV keyed by hashed email. Get reports
// false for both missing and expired keys.
type VerificationStore interface {
	Put(ctx context.Context, hashedEmail string, rec VerificationRecord, ttl time.Duration) error
	Get(ctx context.Context, hashedEmail string) (*VerificationRecord, bool, error)
}

// OAuthStateStore holds the expected OAuth state for a browser between the
// login redirect and the callback. Take deletes the entry.
type OAuthStateStore interface {
	Save(ctx context.Context, id, state string, ttl time.Duration) error
	Take(ctx context.Context, id string) (string, bool, error)
}

type MailKind string

const (
	MailSignup        MailKind = "signup"
	MailResetPassword MailKind = "reset_password"
)

// Mailer queues outgoing mail. Delivery happens out of process.
type Mailer interface {
	SendVerification(ctx context.Context, kind MailKind, email, link string) error
	SendReAgreement(ctx context.Context, email string, a *entity.Agreement) error
}

// TaskQueue schedules named background tasks.
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, args any) error
}

// NotificationLedger reports true the first time a key is marked.
type NotificationLedger interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// GoogleIdentity is the verified id-token payload of a Google account.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	// Claims is the full payload, persisted encrypted.
	Claims map[string]any
}

type GoogleProvider interface {
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a verified identity.
	Exchange(ctx context.Context, code string) (*GoogleIdentity, error)
}

type AuditEvent struct {
	Action string         `json:"action"`
	UserID string         `json:"user_id,omitempty"`
	Email  string         `json:"email,omitempty"`
	IP     string         `json:"ip,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	At     time.Time      `json:"@timestamp"`
}

// AuditSink records account events. Implementations are best-effort.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent) error
}

type AvatarStorage interface {
	Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error)
}

type ctxKey int

const clientIPKey ctxKey = iota

// WithClientIP attaches the caller's IP so mails and audit events can carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
