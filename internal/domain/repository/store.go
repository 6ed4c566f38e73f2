package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store groups the repositories that share one transaction.
type Store interface {
	Users() UserRepository
	Identities() IdentityRepository
	Profiles() ProfileRepository
	Agreements() AgreementRepository
	Consents() ConsentRepository
	Tokens() TokenRepository

	// WithTx runs fn in a transaction. fn receives a Store bound to it.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
