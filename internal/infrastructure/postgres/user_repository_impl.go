package postgres

import (
	"context"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

const userColumns = `id::text, email, password, is_verified, is_active, is_staff, date_joined, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.IsVerified, &u.IsActive, &u.IsStaff,
		&u.DateJoined, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password, is_verified, is_active, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING date_joined, updated_at
	`, u.ID, u.Email, u.Password, u.IsVerified, u.IsActive, u.IsStaff)

	return mapErr(row.Scan(&u.DateJoined, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = now()
		WHERE id = $2
	`, hash, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type IdentityRepository struct {
	db DBTX
}

const identityColumns = `id, user_id::text, provider, subject_id, raw_payload, created_at`

func scanIdentity(row interface{ Scan(...any) error }) (*entity.ExternalIdentity, error) {
	i := &entity.ExternalIdentity{}
	if err := row.Scan(&i.ID, &i.UserID, &i.Provider, &i.SubjectID, &i.RawPayload, &i.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return i, nil
}

func (r *IdentityRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*entity.ExternalIdentity, error) {
	return scanIdentity(r.db.QueryRow(ctx, `
		SELECT `+identityColumns+` FROM external_identities
		WHERE provider = $1 AND subject_id = $2
	`, provider, subject))
}

func (r *IdentityRepository) GetByUserProvider(ctx context.Context, userID, provider string) (*entity.ExternalIdentity, error) {
	return scanIdentity(r.db.QueryRow(ctx, `
		SELECT `+identityColumns+` FROM external_identities
		WHERE user_id = $1 AND provider = $2
	`, userID, provider))
}

func (r *IdentityRepository) Create(ctx context.Context, i *entity.ExternalIdentity) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO external_identities (user_id, provider, subject_id, raw_payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, i.UserID, i.Provider, i.SubjectID, i.RawPayload)
	return mapErr(row.Scan(&i.ID, &i.CreatedAt))
}

type ProfileRepository struct {
	db DBTX
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	p := &entity.Profile{}
	err := r.db.QueryRow(ctx, `
		SELECT user_id::text, nickname, avatar_url, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Nickname, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, nickname, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, p.UserID, p.Nickname, p.AvatarURL)
	return mapErr(row.Scan(&p.CreatedAt, &p.UpdatedAt))
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	err := r.db.QueryRow(ctx, `
		UPDATE profiles SET nickname = $1, avatar_url = $2, updated_at = now()
		WHERE user_id = $3
		RETURNING updated_at
	`, p.Nickname, p.AvatarURL, p.UserID).Scan(&p.UpdatedAt)
	return mapErr(err)
}

func (r *ProfileRepository) NicknameExists(ctx context.Context, nickname, exceptUserID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM profiles WHERE nickname = $1 AND user_id::text <> $2)
	`, nickname, exceptUserID).Scan(&exists)
	if err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.IdentityRepository = (*IdentityRepository)(nil)
	_ repository.ProfileRepository  = (*ProfileRepository)(nil)
)
