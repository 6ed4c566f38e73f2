package repository

import (
	"context"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

// AgreementRepository has no general update: a persisted agreement can only
// be deactivated.
type AgreementRepository interface {
	Create(ctx context.Context, a *entity.Agreement) error
	GetByID(ctx context.Context, id int64) (*entity.Agreement, error)
	// GetByIDs returns the agreements that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Agreement, error)
	// Deactivate flips is_active from true to false. It reports false when
	// the agreement was already inactive.
	Deactivate(ctx context.Context, id int64) (bool, error)
	// ListActive orders by display order then creation. limit <= 0 returns all.
	ListActive(ctx context.Context, limit, offset int) ([]entity.Agreement, error)
	CountActive(ctx context.Context) (int64, error)
}

type ConsentRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.UserAgreement, error)
	GetByUserAndAgreement(ctx context.Context, userID string, agreementID int64) (*entity.UserAgreement, error)
	Create(ctx context.Context, ua *entity.UserAgreement) error
	Update(ctx context.Context, ua *entity.UserAgreement) error
	AppendHistory(ctx context.Context, h *entity.UserAgreementHistory) error
	ListByUser(ctx context.Context, userID string) ([]entity.UserAgreementDetail, error)
	ListHistory(ctx context.Context, userAgreementID int64) ([]entity.UserAgreementHistory, error)
	ListAgreedUserIDs(ctx context.Context, agreementID int64) ([]string, error)
}
