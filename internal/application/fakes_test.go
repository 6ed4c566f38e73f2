package application

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/infrastructure/memory"
	"github.com/oksasatya/social-account-service/pkg/crypt"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

const testSalt = "pepper"

type fakeVerifications struct {
	mu   sync.Mutex
	recs map[string]VerificationRecord
}

func (f *fakeVerifications) Put(_ context.Context, h string, rec VerificationRecord, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recs == nil {
		f.recs = map[string]VerificationRecord{}
	}
	f.recs[h] = rec
	return nil
}

func (f *fakeVerifications) Get(_ context.Context, h string) (*VerificationRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[h]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

type fakeStates struct {
	mu     sync.Mutex
	states map[string]string
}

func (f *fakeStates) Save(_ context.Context, id, state string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states == nil {
		f.states = map[string]string{}
	}
	f.states[id] = state
	return nil
}

func (f *fakeStates) Take(_ context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[id]
	delete(f.states, id)
	return s, ok, nil
}

type sentMail struct {
	Kind  MailKind
	Email string
	Link  string
}

type fakeMailer struct {
	mu          sync.Mutex
	sent        []sentMail
	reAgreement []string
	failFor     map[string]bool
	sendErr     error
}

func (f *fakeMailer) SendVerification(_ context.Context, kind MailKind, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{Kind: kind, Email: email, Link: link})
	return nil
}

func (f *fakeMailer) SendReAgreement(_ context.Context, email string, _ *entity.Agreement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[email] {
		return errors.New("smtp down")
	}
	f.reAgreement = append(f.reAgreement, email)
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	return f.sent[len(f.sent)-1]
}

// linkParams returns hashed_email and token from the last verification link.
func (f *fakeMailer) linkParams(t *testing.T) (string, string) {
	t.Helper()
	u, err := url.Parse(f.last(t).Link)
	require.NoError(t, err)
	return u.Query().Get("hashed_email"), u.Query().Get("token")
}

type enqueued struct {
	Name string
	Args any
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []enqueued
	err   error
}

func (f *fakeTasks) Enqueue(_ context.Context, name string, args any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, enqueued{Name: name, Args: args})
	return nil
}

type fakeLedger struct {
	mu    sync.Mutex
	marks map[string]bool
}

func (f *fakeLedger) MarkOnce(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks == nil {
		f.marks = map[string]bool{}
	}
	if f.marks[key] {
		return false, nil
	}
	f.marks[key] = true
	return true, nil
}

func (f *fakeLedger) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.marks, key)
	return nil
}

type fakeGoogle struct {
	ident *GoogleIdentity
	err   error
	codes []string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (*GoogleIdentity, error) {
	f.codes = append(f.codes, code)
	return f.ident, f.err
}

type fakeAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (f *fakeAudit) Record(_ context.Context, ev AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Action)
	}
	return out
}

// harness wires every service over one in-memory store and a movable clock.
type harness struct {
	now      time.Time
	store    *memory.Store
	jwt      *helpers.JWTManager
	tokens   *TokenService
	accounts *AccountManager
	registry *AgreementRegistry
	consents *ConsentLedger
	profiles *ProfileService
	verifs   *fakeVerifications
	states   *fakeStates
	mailer   *fakeMailer
	tasks    *fakeTasks
	google   *fakeGoogle
	audit    *fakeAudit
	cipher   *crypt.Cipher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }
	logger := helpers.NewDiscardLogger()

	h.store = memory.NewStore().WithClock(clock)
	h.jwt = helpers.NewJWTManager("test-signing-key").WithClock(clock)
	h.tokens = NewTokenService(h.store, h.jwt, 30*time.Minute, 14*24*time.Hour, 24*time.Hour, logger)

	cipher, err := crypt.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	h.cipher = cipher

	h.verifs = &fakeVerifications{}
	h.states = &fakeStates{}
	h.mailer = &fakeMailer{}
	h.tasks = &fakeTasks{}
	h.google = &fakeGoogle{}
	h.audit = &fakeAudit{}

	h.accounts = &AccountManager{
		Store:         h.store,
		Tokens:        h.tokens,
		Verifications: h.verifs,
		States:        h.states,
		Mailer:        h.mailer,
		Google:        h.google,
		Crypt:         cipher,
		Audit:         h.audit,
		Logger:        logger,
		Settings: AccountSettings{
			Env:              "test",
			HashSalt:         testSalt,
			VerificationTTL:  time.Hour,
			SignupConfirmURL: "https://api.example.com/v1/account/register/confirm/",
			ResetPasswordURL: "https://app.example.com/password/change",
			OAuthStateTTL:    10 * time.Minute,
		},
	}
	h.registry = &AgreementRegistry{Store: h.store, Tasks: h.tasks, Audit: h.audit, Logger: logger}
	h.consents = &ConsentLedger{Store: h.store, Audit: h.audit, Logger: logger}
	h.profiles = &ProfileService{Store: h.store, Consents: h.consents, Logger: logger}
	return h
}

// verifiedUser registers and confirms email with password.
func (h *harness) verifiedUser(t *testing.T, email, password string) *entity.User {
	t.Helper()
	ctx := context.Background()
	_, err := h.accounts.Register(ctx, RegisterInput{Email: email, Password: password, PasswordConfirm: password})
	require.NoError(t, err)
	hashed, token := h.mailer.linkParams(t)
	_, err = h.accounts.Confirm(ctx, ConfirmInput{HashedEmail: hashed, Token: token})
	require.NoError(t, err)
	u, err := h.store.Users().GetByEmail(ctx, email)
	require.NoError(t, err)
	return u
}

func (h *harness) publish(t *testing.T, title string, typ entity.AgreementType, required bool, prev *int64) *entity.Agreement {
	t.Helper()
	a, err := h.registry.Publish(context.Background(), PublishInput{
		Title:             title,
		Content:           title + " 본문",
		Version:           "1.0",
		PreviousVersionID: prev,
		Type:              typ,
		IsRequired:        required,
	})
	require.NoError(t, err)
	return a
}

func ptr[T any](v T) *T { return &v }
