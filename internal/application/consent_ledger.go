package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/pkg/apperr"
)

// ConsentLedger keeps per-user consent to agreements and the history of
// every change to it.
type ConsentLedger struct {
	Store  repo.Store
	Audit  AuditSink
	Logger *logrus.Logger
}

// ConsentItem uses pointers so a missing field can be told apart from false.
type ConsentItem struct {
	ID       *int64 `json:"id"`
	IsAgreed *bool  `json:"is_agreed"`
}

type GrantInput struct {
	Agreements []ConsentItem `json:"agreements"`
}

type UpdateConsentInput struct {
	IsAgreed *bool `json:"is_agreed"`
}

// GrantAll records the user's answer for every listed agreement. The list
// must cover every active agreement and agree to every required one.
func (l *ConsentLedger) GrantAll(ctx context.Context, userID string, in GrantInput) ([]entity.UserAgreementDetail, error) {
	answers := make(map[int64]bool, len(in.Agreements))
	ids := make([]int64, 0, len(in.Agreements))
	for _, item := range in.Agreements {
		if item.ID == nil || item.IsAgreed == nil {
			return nil, apperr.ConsentIDRequired.On("agreements")
		}
		if _, dup := answers[*item.ID]; !dup {
			ids = append(ids, *item.ID)
		}
		answers[*item.ID] = *item.IsAgreed
	}

	found, err := l.Store.Agreements().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, apperr.ConsentAgreementMissing.On("agreements")
		}
	}
	for _, id := range ids {
		if found[id].IsRequired && !answers[id] {
			return nil, apperr.RequiredNotAgreed.On("agreements")
		}
	}
	active, err := l.Store.Agreements().ListActive(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	for _, a := range active {
		if _, ok := answers[a.ID]; !ok {
			return nil, apperr.ActiveSetNotCovered.On("agreements")
		}
	}

	err = l.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		for _, id := range ids {
			cur, err := tx.Consents().GetByUserAndAgreement(ctx, userID, id)
			if errors.Is(err, repo.ErrNotFound) {
				if err := tx.Consents().Create(ctx, &entity.UserAgreement{UserID: userID, AgreementID: id, IsAgreed: answers[id]}); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			if err := applyConsent(ctx, tx, cur, answers[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, l.Audit, l.Logger, AuditEvent{Action: AuditConsentGrant, UserID: userID, Fields: map[string]any{"agreement_ids": ids}})
	return l.List(ctx, userID)
}

// applyConsent snapshots the prior state into history and writes the new
// one. Nothing is written when the state does not change.
func applyConsent(ctx context.Context, tx repo.Store, cur *entity.UserAgreement, agreed bool) error {
	if cur.IsAgreed == agreed {
		return nil
	}
	if err := tx.Consents().AppendHistory(ctx, &entity.UserAgreementHistory{
		UserAgreementID: cur.ID,
		IsAgreed:        cur.IsAgreed,
		UpdatedAt:       cur.UpdatedAt,
	}); err != nil {
		return err
	}
	cur.IsAgreed = agreed
	return tx.Consents().Update(ctx, cur)
}

// Update changes one of the user's consents. Consent to a required agreement
// cannot be withdrawn.
func (l *ConsentLedger) Update(ctx context.Context, userID string, userAgreementID int64, in UpdateConsentInput) (*entity.UserAgreementDetail, error) {
	if in.IsAgreed == nil {
		return nil, apperr.ConsentIDRequired.On("is_agreed")
	}
	var out entity.UserAgreementDetail
	err := l.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		cur, err := l.owned(ctx, tx, userID, userAgreementID)
		if err != nil {
			return err
		}
		a, err := tx.Agreements().GetByID(ctx, cur.AgreementID)
		if err != nil {
			return err
		}
		if a.IsRequired && !*in.IsAgreed {
			return apperr.RequiredNotAgreed.On("is_agreed")
		}
		if err := applyConsent(ctx, tx, cur, *in.IsAgreed); err != nil {
			return err
		}
		out = entity.UserAgreementDetail{UserAgreement: *cur, Agreement: *a}
		return nil
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, l.Audit, l.Logger, AuditEvent{
		Action: AuditConsentUpdate,
		UserID: userID,
		Fields: map[string]any{"user_agreement_id": userAgreementID, "is_agreed": *in.IsAgreed},
	})
	return &out, nil
}

func (l *ConsentLedger) owned(ctx context.Context, store repo.Store, userID string, id int64) (*entity.UserAgreement, error) {
	ua, err := store.Consents().GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && ua.UserID != userID) {
		return nil, apperr.UserAgreementNotFound
	}
	return ua, err
}

func (l *ConsentLedger) List(ctx context.Context, userID string) ([]entity.UserAgreementDetail, error) {
	return l.Store.Consents().ListByUser(ctx, userID)
}

// History returns the prior states of one of the user's consents, oldest
// first.
func (l *ConsentLedger) History(ctx context.Context, userID string, userAgreementID int64) ([]entity.UserAgreementHistory, error) {
	if _, err := l.owned(ctx, l.Store, userID, userAgreementID); err != nil {
		return nil, err
	}
	return l.Store.Consents().ListHistory(ctx, userAgreementID)
}

// PendingRequired lists the active required agreements the user has not
// agreed to. The user is onboarded when it is empty.
func (l *ConsentLedger) PendingRequired(ctx context.Context, userID string) ([]entity.Agreement, error) {
	active, err := l.Store.Agreements().ListActive(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	mine, err := l.Store.Consents().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	agreed := make(map[int64]bool, len(mine))
	for _, c := range mine {
		agreed[c.AgreementID] = c.IsAgreed
	}
	var pending []entity.Agreement
	for _, a := range active {
		if a.IsRequired && !agreed[a.ID] {
			pending = append(pending, a)
		}
	}
	return pending, nil
}
