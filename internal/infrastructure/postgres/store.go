package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store hands out repositories bound either to the pool or to one transaction.
type Store struct {
	root TxBeginner
	db   DBTX
	inTx bool
}

func NewStore(pool TxBeginner) *Store {
	return &Store{root: pool, db: pool}
}

func (s *Store) Users() repository.UserRepository           { return &UserRepository{db: s.db} }
func (s *Store) Identities() repository.IdentityRepository  { return &IdentityRepository{db: s.db} }
func (s *Store) Profiles() repository.ProfileRepository     { return &ProfileRepository{db: s.db} }
func (s *Store) Agreements() repository.AgreementRepository { return &AgreementRepository{db: s.db} }
func (s *Store) Consents() repository.ConsentRepository     { return &ConsentRepository{db: s.db} }
func (s *Store) Tokens() repository.TokenRepository         { return &TokenRepository{db: s.db} }

// WithTx commits when fn returns nil and rolls back on error or panic.
// Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	tx, err := s.root.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback must run even when the request context is already cancelled.
	rbCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(rbCtx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(rbCtx)
		}
	}()

	if err = fn(ctx, &Store{root: s.root, db: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// mapErr translates driver errors onto repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

var _ repository.Store = (*Store)(nil)
