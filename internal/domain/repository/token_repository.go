package repository

import (
	"context"
	"time"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

type TokenRepository interface {
	CreateOutstanding(ctx context.Context, t *entity.OutstandingToken) error
	// Blacklist reports false when the jti was already blacklisted.
	Blacklist(ctx context.Context, t *entity.BlacklistedToken) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// ListOutstandingActive returns refresh tokens of userID that are neither
	// expired at now nor blacklisted.
	ListOutstandingActive(ctx context.Context, userID string, now time.Time) ([]entity.OutstandingToken, error)
	// DeleteExpired removes outstanding and blacklisted rows expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
