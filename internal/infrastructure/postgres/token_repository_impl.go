package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

type TokenRepository struct {
	db DBTX
}

func (r *TokenRepository) CreateOutstanding(ctx context.Context, t *entity.OutstandingToken) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO outstanding_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, t.JTI, t.UserID, t.ExpiresAt)
	return mapErr(row.Scan(&t.CreatedAt))
}

func (r *TokenRepository) Blacklist(ctx context.Context, t *entity.BlacklistedToken) (bool, error) {
	var userID any
	if t.UserID != "" {
		userID = t.UserID
	}
	res, err := r.db.Exec(ctx, `
		INSERT INTO blacklisted_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING
	`, t.JTI, userID, t.ExpiresAt)
	if err != nil {
		return false, mapErr(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *TokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE jti = $1)`, jti).Scan(&exists)
	if err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

func (r *TokenRepository) ListOutstandingActive(ctx context.Context, userID string, now time.Time) ([]entity.OutstandingToken, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.jti, o.user_id::text, o.expires_at, o.created_at
		FROM outstanding_tokens o
		LEFT JOIN blacklisted_tokens b ON b.jti = o.jti
		WHERE o.user_id = $1 AND o.expires_at > $2 AND b.jti IS NULL
		ORDER BY o.created_at
	`, userID, now)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []entity.OutstandingToken
	for rows.Next() {
		var t entity.OutstandingToken
		if err := rows.Scan(&t.JTI, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	a, err := r.db.Exec(ctx, `DELETE FROM blacklisted_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	b, err := r.db.Exec(ctx, `DELETE FROM outstanding_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return a.RowsAffected() + b.RowsAffected(), nil
}

var _ repository.TokenRepository = (*TokenRepository)(nil)
