package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestUserRepository_CreateConflict(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("u1", "test@example.com", "hash", false, true, false).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := store.Users().Create(ctx, &entity.User{ID: "u1", Email: "test@example.com", Password: "hash", IsActive: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("test@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "is_verified", "is_active", "is_staff", "date_joined", "updated_at"}).
			AddRow("u1", "test@example.com", "hash", true, true, false, now, now))

	u, err := store.Users().GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsVerified)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = store.Users().GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetVerifiedMissing(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectExec(`UPDATE users SET is_verified = TRUE`).
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Users().SetVerified(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepository_Deactivate(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE agreements SET is_active = FALSE WHERE id = \$1 AND is_active`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE agreements SET is_active = FALSE WHERE id = \$1 AND is_active`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := store.Agreements().Deactivate(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Agreements().Deactivate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepository_ListActive(t *testing.T) {
	mock, store := newMock(t)
	now := time.Now()
	prev := int64(1)

	cols := []string{"id", "title", "content", "version", "previous_version_id", "agreement_type",
		"display_order", "is_required", "is_active", "created_at"}
	mock.ExpectQuery(`FROM agreements\s+WHERE is_active ORDER BY display_order, created_at, id\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(2), "서비스 이용약관", "...", "2.0", &prev, "services", 1, true, true, now).
			AddRow(int64(3), "마케팅 수신 동의", "...", "1.0", (*int64)(nil), "marketing", 3, false, true, now))

	list, err := store.Agreements().ListActive(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.AgreementServices, list[0].Type)
	require.NotNil(t, list[0].PreviousVersionID)
	assert.Equal(t, int64(1), *list[0].PreviousVersionID)
	assert.Nil(t, list[1].PreviousVersionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_BlacklistIdempotent(t *testing.T) {
	mock, store := newMock(t)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO blacklisted_tokens .+ ON CONFLICT \(jti\) DO NOTHING`).
		WithArgs("j1", "u1", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO blacklisted_tokens .+ ON CONFLICT \(jti\) DO NOTHING`).
		WithArgs("j1", "u1", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tok := &entity.BlacklistedToken{JTI: "j1", UserID: "u1", ExpiresAt: exp}
	inserted, err := store.Tokens().Blacklist(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = store.Tokens().Blacklist(context.Background(), tok)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxCommit(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE agreements SET is_active = FALSE`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO agreements`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), time.Now()))
	mock.ExpectCommit()

	prev := int64(1)
	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Agreements().Deactivate(ctx, 1); err != nil {
			return err
		}
		return tx.Agreements().Create(ctx, &entity.Agreement{Title: "t", Content: "c", Version: "2", PreviousVersionID: &prev,
			Type: entity.AgreementServices, IsRequired: true, IsActive: true})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxRollback(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE agreements SET is_active = FALSE`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Agreements().Deactivate(ctx, 1); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithTx(ctx, func(context.Context, repository.Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
