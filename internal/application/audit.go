package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	AuditRegister         = "register"
	AuditConfirm          = "confirm"
	AuditLogin            = "login"
	AuditLogout           = "logout"
	AuditPasswordChange   = "password_change"
	AuditOAuthJoin        = "oauth_join"
	AuditConsentGrant     = "consent_grant"
	AuditConsentUpdate    = "consent_update"
	AuditAgreementPublish = "agreement_publish"
)

// audit records ev on sink and logs failures at warn.
func audit(ctx context.Context, sink AuditSink, logger *logrus.Logger, ev AuditEvent) {
	if sink == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.IP == "" {
		ev.IP = ClientIP(ctx)
	}
	if err := sink.Record(ctx, ev); err != nil && logger != nil {
		logger.WithError(err).WithField("action", ev.Action).Warn("audit record failed")
	}
}
