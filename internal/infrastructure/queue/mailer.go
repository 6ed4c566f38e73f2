// Package queue publishes mail jobs and background tasks to RabbitMQ.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/pkg/mailer"
	"github.com/oksasatya/social-account-service/pkg/mailer/templates"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Mailer turns mail requests into EmailJob messages for the email worker.
type Mailer struct {
	Pub     Publisher
	Cfg     *config.Config
	Timeout time.Duration
}

func NewMailer(pub Publisher, cfg *config.Config) *Mailer {
	return &Mailer{Pub: pub, Cfg: cfg, Timeout: cfg.ExternalCallTimeout}
}

func (m *Mailer) SendVerification(ctx context.Context, kind application.MailKind, email, link string) error {
	opts := []templates.Option{templates.WithTime(time.Now())}
	if ip := application.ClientIP(ctx); ip != "" {
		opts = append(opts, templates.WithIP(ip))
	}
	var job mailer.EmailJob
	switch kind {
	case application.MailSignup:
		job = mailer.EmailJob{To: email, Template: templates.Signup, Data: templates.NewSignupData(m.Cfg, email, link, opts...)}
	case application.MailResetPassword:
		job = mailer.EmailJob{To: email, Template: templates.ResetPassword, Data: templates.NewResetPasswordData(m.Cfg, email, link, opts...)}
	default:
		return fmt.Errorf("unknown mail kind %q", kind)
	}
	return m.publish(ctx, job)
}

func (m *Mailer) SendReAgreement(ctx context.Context, email string, a *entity.Agreement) error {
	job := mailer.EmailJob{
		To:       email,
		Template: templates.ReAgreement,
		Data:     templates.NewReAgreementData(m.Cfg, email, a.Title, a.Version, string(a.Type)),
	}
	return m.publish(ctx, job)
}

func (m *Mailer) publish(ctx context.Context, job mailer.EmailJob) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	if err := m.Pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

var _ application.Mailer = (*Mailer)(nil)
