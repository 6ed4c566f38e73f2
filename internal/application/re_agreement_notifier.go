package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
)

// ErrInvalidTaskArgs marks a task that can never succeed and should not be
// retried.
var ErrInvalidTaskArgs = errors.New("invalid task args")

// ReAgreementNotifier mails every user who agreed to a superseded agreement,
// at most once per (user, new agreement).
type ReAgreementNotifier struct {
	Store  repo.Store
	Mailer Mailer
	Ledger NotificationLedger
	Logger *logrus.Logger
}

func reAgreementMark(newID int64, userID string) string {
	return fmt.Sprintf("re_agreement:%d:%s", newID, userID)
}

// Handle runs one notify_re_agreement task. Failed sends are released from
// the ledger and reported so the task is redelivered.
func (n *ReAgreementNotifier) Handle(ctx context.Context, raw json.RawMessage) error {
	var args ReAgreementArgs
	if err := json.Unmarshal(raw, &args); err != nil || args.PreviousID == 0 || args.NewID == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTaskArgs, raw)
	}
	next, err := n.Store.Agreements().GetByID(ctx, args.NewID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: agreement %d not found", ErrInvalidTaskArgs, args.NewID)
	}
	if err != nil {
		return err
	}
	userIDs, err := n.Store.Consents().ListAgreedUserIDs(ctx, args.PreviousID)
	if err != nil {
		return err
	}

	var errs []error
	sent := 0
	for _, uid := range userIDs {
		u, err := n.Store.Users().GetByID(ctx, uid)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.IsActive) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mark := reAgreementMark(next.ID, uid)
		first, err := n.Ledger.MarkOnce(ctx, mark)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !first {
			continue
		}
		if err := n.Mailer.SendReAgreement(ctx, u.Email, next); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", uid, err))
			if rErr := n.Ledger.Release(ctx, mark); rErr != nil {
				n.Logger.WithError(rErr).WithField("mark", mark).Warn("release notification mark failed")
			}
			continue
		}
		sent++
	}
	n.Logger.WithFields(logrus.Fields{
		"previous_id": args.PreviousID,
		"new_id":      args.NewID,
		"recipients":  len(userIDs),
		"sent":        sent,
	}).Info("re-agreement notification processed")
	return errors.Join(errs...)
}
