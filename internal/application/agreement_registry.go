package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/validation"
)

// TaskNotifyReAgreement asks consenting users of a superseded agreement to
// review its successor.
const TaskNotifyReAgreement = "notify_re_agreement"

type ReAgreementArgs struct {
	PreviousID int64 `json:"previous_id"`
	NewID      int64 `json:"new_id"`
}

// AgreementRegistry is the catalog of immutable, versioned agreements.
type AgreementRegistry struct {
	Store  repo.Store
	Tasks  TaskQueue
	Audit  AuditSink
	Logger *logrus.Logger
}

// PublishInput describes a new agreement. A non-zero ID means the caller is
// trying to change a persisted agreement, which is never allowed.
type PublishInput struct {
	ID                int64                `json:"id"`
	Title             string               `json:"title" validate:"required,max=255"`
	Content           string               `json:"content" validate:"required"`
	Version           string               `json:"version" validate:"required,max=32"`
	PreviousVersionID *int64               `json:"previous_version_id" validate:"omitempty,gt=0"`
	Type              entity.AgreementType `json:"agreement_type" validate:"required,oneof=services privacy marketing"`
	Order             int                  `json:"order" validate:"gte=0"`
	IsRequired        bool                 `json:"is_required"`
}

var publishCatalog = validation.Catalog{
	"title":               apperr.InvalidAgreementPayload,
	"content":             apperr.InvalidAgreementPayload,
	"version":             apperr.InvalidAgreementPayload,
	"previous_version_id": apperr.InvalidAgreementPayload,
	"agreement_type":      apperr.InvalidAgreementPayload,
	"order":               apperr.InvalidAgreementPayload,
}

// Publish stores a new active agreement. When it succeeds an active
// predecessor, the predecessor is deactivated in the same transaction and a
// re-consent notification is queued after commit.
func (r *AgreementRegistry) Publish(ctx context.Context, in PublishInput) (*entity.Agreement, error) {
	if in.ID != 0 {
		return nil, apperr.AgreementImmutable
	}
	if err := validation.Struct(in, publishCatalog); err != nil {
		return nil, err
	}

	a := &entity.Agreement{
		Title:             in.Title,
		Content:           in.Content,
		Version:           in.Version,
		PreviousVersionID: in.PreviousVersionID,
		Type:              in.Type,
		Order:             in.Order,
		IsRequired:        in.IsRequired,
		IsActive:          true,
	}
	var superseded bool
	err := r.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if a.PreviousVersionID != nil {
			if _, err := tx.Agreements().GetByID(ctx, *a.PreviousVersionID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return apperr.AgreementNotFound.On("previous_version_id")
				}
				return err
			}
			var err error
			if superseded, err = tx.Agreements().Deactivate(ctx, *a.PreviousVersionID); err != nil {
				return err
			}
		}
		if err := tx.Agreements().Create(ctx, a); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return apperr.AgreementImmutable.On("previous_version_id").Wrap(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if superseded {
		args := ReAgreementArgs{PreviousID: *a.PreviousVersionID, NewID: a.ID}
		if err := r.Tasks.Enqueue(ctx, TaskNotifyReAgreement, args); err != nil {
			r.Logger.WithError(err).
				WithFields(logrus.Fields{"previous_id": args.PreviousID, "new_id": args.NewID}).
				Warn("enqueue re-agreement notification failed")
		}
	}
	audit(ctx, r.Audit, r.Logger, AuditEvent{
		Action: AuditAgreementPublish,
		Fields: map[string]any{"agreement_id": a.ID, "version": a.Version, "superseded": superseded},
	})
	return a, nil
}

// ListActive returns one page of active agreements and the total count.
// limit <= 0 returns all of them.
func (r *AgreementRegistry) ListActive(ctx context.Context, limit, offset int) ([]entity.Agreement, int64, error) {
	list, err := r.Store.Agreements().ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := r.Store.Agreements().CountActive(ctx)
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

func (r *AgreementRegistry) Get(ctx context.Context, id int64) (*entity.Agreement, error) {
	a, err := r.Store.Agreements().GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.AgreementNotFound
	}
	return a, err
}
