package templates

import (
	"time"

	"github.com/oksasatya/social-account-service/config"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option       { return func(d *EmailData) { d.IP = ip } }
func WithActionURL(u string) Option { return func(d *EmailData) { d.ActionURL = u } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("2006-01-02 15:04 MST") }
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("2006-01-02 15:04 MST")
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, email string, opts ...Option) EmailData {
	d := EmailData{
		Email: email,
		Type:  typ,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewSignupData(cfg *config.Config, email, confirmURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithActionURL(confirmURL), WithExpiresIn(cfg.EmailVerificationTimeout)}, opts...)
	return ToMap(NewBaseEmailData(cfg, Signup, email, opts...))
}

func NewResetPasswordData(cfg *config.Config, email, resetURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithActionURL(resetURL), WithExpiresIn(cfg.EmailVerificationTimeout)}, opts...)
	return ToMap(NewBaseEmailData(cfg, ResetPassword, email, opts...))
}

func NewReAgreementData(cfg *config.Config, email, title, version, agreementType string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ReAgreement, email, opts...)
	d.AgreementTitle = title
	d.AgreementVersion = version
	d.AgreementType = agreementType
	return ToMap(d)
}
