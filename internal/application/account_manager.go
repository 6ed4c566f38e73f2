package application

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/crypt"
	"github.com/oksasatya/social-account-service/pkg/helpers"
	"github.com/oksasatya/social-account-service/pkg/validation"
)

// AccountSettings is the slice of configuration the account flows need.
type AccountSettings struct {
	Env                 string
	HashSalt            string
	VerificationTTL     time.Duration
	SignupConfirmURL    string
	ResetPasswordURL    string
	OAuthStateTTL       time.Duration
	ExternalCallTimeout time.Duration
}

// AccountManager runs registration, email verification, login, password
// reset and the Google join/merge flow.
type AccountManager struct {
	Store         repo.Store
	Tokens        *TokenService
	Verifications VerificationStore
	States        OAuthStateStore
	Mailer        Mailer
	Google        GoogleProvider
	Crypt         *crypt.Cipher
	Audit         AuditSink
	Logger        *logrus.Logger
	Settings      AccountSettings
}

const (
	OAuthStatusSuccess              = "success"
	OAuthStatusVerificationRequired = "verification_required"
)

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email_fmt"`
	Password        string `json:"password" validate:"required,password_fmt"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type ConfirmInput struct {
	HashedEmail string `json:"hashed_email" form:"hashed_email" validate:"required,hex32"`
	Token       string `json:"token" form:"token" validate:"required,hex32"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email_fmt"`
	Password string `json:"password" validate:"required"`
}

type EmailInput struct {
	Email string `json:"email" validate:"required,email_fmt"`
}

type ChangePasswordInput struct {
	HashedEmail     string `json:"hashed_email" validate:"required,hex32"`
	Token           string `json:"token" validate:"required,hex32"`
	Password        string `json:"password" validate:"required,password_fmt"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

var (
	registerCatalog = validation.Catalog{
		"email":            apperr.InvalidEmail,
		"password":         apperr.InvalidPassword,
		"password_confirm": apperr.PasswordMismatch,
	}
	confirmCatalog = validation.Catalog{
		"hashed_email": apperr.ConfirmInvalidHashedEmail,
		"token":        apperr.ConfirmInvalidToken,
	}
	loginCatalog = validation.Catalog{
		"email":    apperr.InvalidEmail,
		"password": apperr.LoginInvalidPassword,
	}
	emailCatalog = validation.Catalog{
		"email": apperr.InvalidEmail,
	}
	changeCatalog = validation.Catalog{
		"hashed_email":     apperr.ChangeInvalidHashedEmail,
		"token":            apperr.ChangeInvalidToken,
		"password":         apperr.InvalidPassword,
		"password_confirm": apperr.PasswordMismatch,
	}
)

// NormalizeEmail case-folds an address before any lookup or write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified user and mails a signup verification link.
func (m *AccountManager) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := validation.Struct(in, registerCatalog); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	existing, err := m.Store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return nil, apperr.EmailInUse.On("email")
	case err == nil:
		return nil, apperr.EmailNotVerifiedSignup.On("email")
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	u := &entity.User{ID: id.String(), Email: email, Password: hash, IsActive: true}
	// the user row commits only once the signup mail is queued
	err = m.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return apperr.EmailInUse.On("email")
			}
			return err
		}
		return m.sendVerification(ctx, MailSignup, email)
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, m.Audit, m.Logger, AuditEvent{Action: AuditRegister, UserID: u.ID, Email: email})
	return u, nil
}

// sendVerification stores a fresh token for email, replacing any previous
// one, and queues the mail carrying the link.
func (m *AccountManager) sendVerification(ctx context.Context, kind MailKind, email string) error {
	token, err := helpers.RandomHex(16)
	if err != nil {
		return err
	}
	hashed := helpers.HashEmail(email, m.Settings.HashSalt)
	if err := m.Verifications.Put(ctx, hashed, VerificationRecord{Token: token, Email: email}, m.Settings.VerificationTTL); err != nil {
		return fmt.Errorf("store verification: %w", err)
	}

	base := m.Settings.SignupConfirmURL
	if kind == MailResetPassword {
		base = m.Settings.ResetPasswordURL
	}
	link, err := VerificationLink(base, hashed, token)
	if err != nil {
		return err
	}
	if err := m.Mailer.SendVerification(ctx, kind, email, link); err != nil {
		return fmt.Errorf("queue verification mail: %w", err)
	}
	return nil
}

// VerificationLink appends hashed_email and token to base, keeping any query
// base already has.
func VerificationLink(base, hashedEmail, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse verification url: %w", err)
	}
	q := u.Query()
	q.Set("hashed_email", hashedEmail)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Confirm marks the user behind a verification record as verified and
// returns their email. The record is left to expire.
func (m *AccountManager) Confirm(ctx context.Context, in ConfirmInput) (string, error) {
	if err := validation.Struct(in, confirmCatalog); err != nil {
		return "", err
	}
	rec, ok, err := m.Verifications.Get(ctx, in.HashedEmail)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.ConfirmInfoNotFound
	}
	u, err := m.Store.Users().GetByEmail(ctx, rec.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return "", apperr.UserNotFound
	}
	if err != nil {
		return "", err
	}
	if u.IsVerified {
		return "", apperr.EmailAlreadyVerified
	}
	if !tokensEqual(rec.Token, in.Token) {
		return "", apperr.ConfirmTokenMismatch.On("token")
	}
	if err := m.Store.Users().SetVerified(ctx, u.ID); err != nil {
		return "", err
	}
	audit(ctx, m.Audit, m.Logger, AuditEvent{Action: AuditConfirm, UserID: u.ID, Email: u.Email})
	return u.Email, nil
}

// Login checks credentials and issues a token pair.
func (m *AccountManager) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	if err := validation.Struct(in, loginCatalog); err != nil {
		return TokenPair{}, err
	}
	u, err := m.Store.Users().GetByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.IsActive) {
		return TokenPair{}, apperr.UserNotFound
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, in.Password) {
		return TokenPair{}, apperr.LoginInvalidPassword
	}
	if !u.IsVerified {
		return TokenPair{}, apperr.LoginEmailNotVerified
	}
	pair, err := m.Tokens.IssuePair(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	audit(ctx, m.Audit, m.Logger, AuditEvent{Action: AuditLogin, UserID: u.ID, Email: u.Email})
	return pair, nil
}

func (m *AccountManager) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, apperr.RefreshTokenRequired.On("refresh_token")
	}
	return m.Tokens.Refresh(ctx, refreshToken)
}

func (m *AccountManager) Logout(ctx context.Context, user *entity.User, accessToken, refreshToken string) error {
	if refreshToken == "" {
		return apperr.RefreshTokenRequired.On("refresh_token")
	}
	if err := m.Tokens.Blacklist(ctx, accessToken, refreshToken); err != nil {
		return err
	}
	ev := AuditEvent{Action: AuditLogout}
	if user != nil {
		ev.UserID, ev.Email = user.ID, user.Email
	}
	audit(ctx, m.Audit, m.Logger, ev)
	return nil
}

// RequestPasswordReset mails a reset link when the address belongs to a
// user. The answer is the same whether or not it does.
func (m *AccountManager) RequestPasswordReset(ctx context.Context, in EmailInput) (string, error) {
	if err := validation.Struct(in, emailCatalog); err != nil {
		return "", err
	}
	email := NormalizeEmail(in.Email)
	_, err := m.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return email, nil
	}
	if err != nil {
		return "", err
	}
	if err := m.sendVerification(ctx, MailResetPassword, email); err != nil {
		return "", err
	}
	return email, nil
}

// ResendVerification re-issues the signup mail for an unverified user.
func (m *AccountManager) ResendVerification(ctx context.Context, in EmailInput) (string, error) {
	if err := validation.Struct(in, emailCatalog); err != nil {
		return "", err
	}
	email := NormalizeEmail(in.Email)
	u, err := m.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u.IsVerified) {
		return email, nil
	}
	if err != nil {
		return "", err
	}
	if err := m.sendVerification(ctx, MailSignup, email); err != nil {
		return "", err
	}
	return email, nil
}

// ChangePassword sets a new password using a reset verification record and
// revokes every live refresh token of the user.
func (m *AccountManager) ChangePassword(ctx context.Context, in ChangePasswordInput) (string, error) {
	if err := validation.Struct(in, changeCatalog); err != nil {
		return "", err
	}
	rec, ok, err := m.Verifications.Get(ctx, in.HashedEmail)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.ChangeInfoNotFound
	}
	u, err := m.Store.Users().GetByEmail(ctx, rec.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return "", apperr.UserNotFound
	}
	if err != nil {
		return "", err
	}
	if !tokensEqual(rec.Token, in.Token) {
		return "", apperr.ChangeTokenMismatch.On("token")
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return "", err
	}

	var revoked int
	err = m.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if err := tx.Users().UpdatePassword(ctx, u.ID, hash); err != nil {
			return err
		}
		revoked, err = m.Tokens.RevokeAll(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return "", err
	}
	audit(ctx, m.Audit, m.Logger, AuditEvent{
		Action: AuditPasswordChange,
		UserID: u.ID,
		Email:  u.Email,
		Fields: map[string]any{"revoked_tokens": revoked},
	})
	return u.Email, nil
}

// OAuthResult is the outcome of a Google callback. Pair is nil when the
// account still needs email verification.
type OAuthResult struct {
	Status string
	User   *entity.User
	Pair   *TokenPair
}

// BeginOAuth creates a state bound to a new browser id and returns the id
// and the provider URL to redirect to.
func (m *AccountManager) BeginOAuth(ctx context.Context) (string, string, error) {
	if m.Google == nil {
		return "", "", errors.New("google login is not configured")
	}
	id, err := helpers.RandomHex(16)
	if err != nil {
		return "", "", err
	}
	state, err := helpers.RandomHex(16)
	if err != nil {
		return "", "", err
	}
	if err := m.States.Save(ctx, id, state, m.Settings.OAuthStateTTL); err != nil {
		return "", "", fmt.Errorf("save oauth state: %w", err)
	}
	return id, m.Google.AuthCodeURL(state), nil
}

// OAuthCallback checks the returned state against the one saved for stateID,
// exchanges code and joins the resulting identity.
func (m *AccountManager) OAuthCallback(ctx context.Context, stateID, code, state string) (*OAuthResult, error) {
	var expected string
	if stateID != "" {
		var ok bool
		var err error
		expected, ok, err = m.States.Take(ctx, stateID)
		if err != nil {
			return nil, err
		}
		if !ok {
			expected = ""
		}
	}
	if expected == "" || state == "" || !tokensEqual(expected, state) {
		return nil, apperr.OAuthStateMismatch
	}
	if m.Google == nil {
		return nil, errors.New("google login is not configured")
	}
	if code == "" {
		return nil, apperr.InvalidPayload.On("code")
	}

	exCtx := ctx
	if m.Settings.ExternalCallTimeout > 0 {
		var cancel context.CancelFunc
		exCtx, cancel = context.WithTimeout(ctx, m.Settings.ExternalCallTimeout)
		defer cancel()
	}
	ident, err := m.Google.Exchange(exCtx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}
	return m.JoinExternal(ctx, ident)
}

// JoinExternal merges a verified Google identity into the account graph in
// one transaction, then either issues tokens or asks for email verification.
func (m *AccountManager) JoinExternal(ctx context.Context, ident *GoogleIdentity) (*OAuthResult, error) {
	email := NormalizeEmail(ident.Email)
	if email == "" || ident.Subject == "" {
		return nil, apperr.OAuthEmailMissing
	}
	payload, err := json.Marshal(ident.Claims)
	if err != nil {
		return nil, err
	}
	sealed, err := m.Crypt.Encrypt(string(payload))
	if err != nil {
		return nil, fmt.Errorf("encrypt identity payload: %w", err)
	}

	var (
		u       *entity.User
		created bool
	)
	err = m.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		var err error
		u, created, err = upsertExternalUser(ctx, tx, email, ident.EmailVerified)
		if err != nil {
			return err
		}
		if err := linkIdentity(ctx, tx.Identities(), u.ID, ident.Subject, sealed); err != nil {
			return err
		}
		if _, err := tx.Profiles().GetByUserID(ctx, u.ID); errors.Is(err, repo.ErrNotFound) {
			nickname, err := pickNickname(ctx, tx.Profiles(), ident.Name, u.ID)
			if err != nil {
				return err
			}
			return tx.Profiles().Create(ctx, &entity.Profile{UserID: u.ID, Nickname: nickname, AvatarURL: ident.Picture})
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, m.Audit, m.Logger, AuditEvent{
		Action: AuditOAuthJoin,
		UserID: u.ID,
		Email:  u.Email,
		Fields: map[string]any{"provider": entity.ProviderGoogle, "created": created},
	})

	if !u.IsVerified {
		if err := m.sendVerification(ctx, MailSignup, u.Email); err != nil {
			return nil, err
		}
		return &OAuthResult{Status: OAuthStatusVerificationRequired, User: u}, nil
	}
	pair, err := m.Tokens.IssuePair(ctx, u)
	if err != nil {
		return nil, err
	}
	return &OAuthResult{Status: OAuthStatusSuccess, User: u, Pair: &pair}, nil
}

// linkIdentity binds the Google subject to userID. A subject owned by another
// user, or a user already bound to another subject, is a conflict.
func linkIdentity(ctx context.Context, identities repo.IdentityRepository, userID, subject, sealed string) error {
	bound, err := identities.GetByProviderSubject(ctx, entity.ProviderGoogle, subject)
	switch {
	case err == nil && bound.UserID != userID:
		return apperr.OAuthIdentityInUse
	case err == nil:
		return nil
	case !errors.Is(err, repo.ErrNotFound):
		return err
	}

	linked, err := identities.GetByUserProvider(ctx, userID, entity.ProviderGoogle)
	if err == nil && linked.SubjectID != subject {
		return apperr.OAuthLinkMismatch
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	err = identities.Create(ctx, &entity.ExternalIdentity{
		UserID:     userID,
		Provider:   entity.ProviderGoogle,
		SubjectID:  subject,
		RawPayload: sealed,
	})
	if errors.Is(err, repo.ErrConflict) {
		return apperr.OAuthIdentityInUse
	}
	return err
}

func upsertExternalUser(ctx context.Context, tx repo.Store, email string, emailVerified bool) (*entity.User, bool, error) {
	u, err := tx.Users().GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		pw, err := helpers.UnusablePassword()
		if err != nil {
			return nil, false, err
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, false, err
		}
		u = &entity.User{ID: id.String(), Email: email, Password: pw, IsVerified: emailVerified, IsActive: true}
		if err := tx.Users().Create(ctx, u); err != nil {
			return nil, false, err
		}
		return u, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !u.IsVerified && emailVerified {
		if err := tx.Users().SetVerified(ctx, u.ID); err != nil {
			return nil, false, err
		}
		u.IsVerified = true
	}
	return u, false, nil
}

// pickNickname returns preferred when it is valid and free, otherwise a
// generated one.
func pickNickname(ctx context.Context, profiles repo.ProfileRepository, preferred, userID string) (string, error) {
	preferred = strings.TrimSpace(preferred)
	if validation.IsNickname(preferred) {
		taken, err := profiles.NicknameExists(ctx, preferred, userID)
		if err != nil {
			return "", err
		}
		if !taken {
			return preferred, nil
		}
	}
	for range 5 {
		suffix, err := helpers.RandomHex(4)
		if err != nil {
			return "", err
		}
		candidate := "user_" + suffix
		taken, err := profiles.NicknameExists(ctx, candidate, userID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.New("could not allocate a nickname")
}
