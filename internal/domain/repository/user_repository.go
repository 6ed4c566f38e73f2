package repository

import (
	"context"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Emails passed in are expected to be case-folded already.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	SetVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// IdentityRepository stores external provider bindings.
type IdentityRepository interface {
	GetByProviderSubject(ctx context.Context, provider, subject string) (*entity.ExternalIdentity, error)
	GetByUserProvider(ctx context.Context, userID, provider string) (*entity.ExternalIdentity, error)
	Create(ctx context.Context, i *entity.ExternalIdentity) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
	Create(ctx context.Context, p *entity.Profile) error
	Update(ctx context.Context, p *entity.Profile) error
	// NicknameExists ignores the profile owned by exceptUserID.
	NicknameExists(ctx context.Context, nickname, exceptUserID string) (bool, error)
}
