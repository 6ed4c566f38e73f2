// Package google implements the Google sign-in provider: the authorization
// code exchange and id-token verification.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
)

var scopes = []string{"openid", "email", "profile"}

var (
	ErrNotConfigured = errors.New("google oauth is not configured")
	ErrNoIDToken     = errors.New("token response has no id_token")
)

// VerifyFunc checks an id token's signature, issuer, expiry and audience.
type VerifyFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type Provider struct {
	conf    *oauth2.Config
	verify  VerifyFunc
	timeout time.Duration
}

// New builds the provider from GOOGLE_CLIENT_SECRETS_CONFIG when set, or from
// the client id and secret otherwise.
func New(cfg *config.Config) (*Provider, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       scopes,
	}
	if path := strings.TrimSpace(cfg.GoogleClientSecretsConfig); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read google client secrets: %w", err)
		}
		conf, err = googleoauth.ConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse google client secrets: %w", err)
		}
		if cfg.GoogleRedirectURI != "" {
			conf.RedirectURL = cfg.GoogleRedirectURI
		}
	}
	if conf.ClientID == "" {
		return nil, ErrNotConfigured
	}
	return NewWithConfig(conf, idtoken.Validate, cfg.ExternalCallTimeout), nil
}

func NewWithConfig(conf *oauth2.Config, verify VerifyFunc, timeout time.Duration) *Provider {
	return &Provider{conf: conf, verify: verify, timeout: timeout}
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *Provider) Exchange(ctx context.Context, code string) (*application.GoogleIdentity, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrNoIDToken
	}
	payload, err := p.verify(ctx, raw, p.conf.ClientID)
	if err != nil {
		return nil, fmt.Errorf("google id token: %w", err)
	}
	return IdentityFromClaims(payload.Subject, payload.Claims), nil
}

// IdentityFromClaims reads the id-token claims. email_verified defaults to
// false and may arrive as a bool or a string.
func IdentityFromClaims(subject string, claims map[string]any) *application.GoogleIdentity {
	id := &application.GoogleIdentity{Subject: subject, Claims: claims}
	if id.Subject == "" {
		id.Subject, _ = claims["sub"].(string)
	}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = strings.EqualFold(v, "true")
	}
	return id
}

var _ application.GoogleProvider = (*Provider)(nil)
