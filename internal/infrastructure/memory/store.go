// Package memory is an in-process repository.Store used by tests and local
// tooling. Transactions are serialized and roll back by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

type data struct {
	users       map[string]entity.User
	identities  map[int64]entity.ExternalIdentity
	profiles    map[string]entity.Profile
	agreements  map[int64]entity.Agreement
	consents    map[int64]entity.UserAgreement
	histories   []entity.UserAgreementHistory
	outstanding map[string]entity.OutstandingToken
	blacklist   map[string]entity.BlacklistedToken
	seq         int64
}

func newData() *data {
	return &data{
		users:       map[string]entity.User{},
		identities:  map[int64]entity.ExternalIdentity{},
		profiles:    map[string]entity.Profile{},
		agreements:  map[int64]entity.Agreement{},
		consents:    map[int64]entity.UserAgreement{},
		outstanding: map[string]entity.OutstandingToken{},
		blacklist:   map[string]entity.BlacklistedToken{},
	}
}

func (d *data) clone() *data {
	return &data{
		users:       maps.Clone(d.users),
		identities:  maps.Clone(d.identities),
		profiles:    maps.Clone(d.profiles),
		agreements:  maps.Clone(d.agreements),
		consents:    maps.Clone(d.consents),
		histories:   slices.Clone(d.histories),
		outstanding: maps.Clone(d.outstanding),
		blacklist:   maps.Clone(d.blacklist),
		seq:         d.seq,
	}
}

func (d *data) next() int64 {
	d.seq++
	return d.seq
}

type state struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    *data
	now  func() time.Time
}

type Store struct {
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: &state{d: newData(), now: time.Now}}
}

// WithClock sets the time source for created/updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.st.now = now
	return s
}

// lock serializes against running transactions unless s is bound to one.
func (s *Store) lock() func() {
	if !s.inTx {
		s.st.txMu.Lock()
	}
	s.st.mu.Lock()
	return func() {
		s.st.mu.Unlock()
		if !s.inTx {
			s.st.txMu.Unlock()
		}
	}
}

func (s *Store) Users() repository.UserRepository           { return &userRepo{s} }
func (s *Store) Identities() repository.IdentityRepository  { return &identityRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository     { return &profileRepo{s} }
func (s *Store) Agreements() repository.AgreementRepository { return &agreementRepo{s} }
func (s *Store) Consents() repository.ConsentRepository     { return &consentRepo{s} }
func (s *Store) Tokens() repository.TokenRepository         { return &tokenRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	s.st.mu.Lock()
	snap := s.st.d.clone()
	s.st.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &Store{st: s.st, inTx: true})
}

func (s *Store) restore(snap *data) {
	s.st.mu.Lock()
	s.st.d = snap
	s.st.mu.Unlock()
}

var _ repository.Store = (*Store)(nil)
