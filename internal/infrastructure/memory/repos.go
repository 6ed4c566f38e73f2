package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.users[u.ID]; ok {
		return repository.ErrConflict
	}
	for _, x := range d.users {
		if x.Email == u.Email {
			return repository.ErrConflict
		}
	}
	now := r.s.st.now()
	u.DateJoined, u.UpdatedAt = now, now
	d.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lock()()
	u, ok := r.s.st.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.st.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) update(id string, fn func(u *entity.User)) error {
	defer r.s.lock()()
	u, ok := r.s.st.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.st.now()
	r.s.st.d.users[id] = u
	return nil
}

func (r *userRepo) SetVerified(_ context.Context, id string) error {
	return r.update(id, func(u *entity.User) { u.IsVerified = true })
}

func (r *userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *entity.User) { u.Password = hash })
}

type identityRepo struct{ s *Store }

func (r *identityRepo) find(match func(i entity.ExternalIdentity) bool) (*entity.ExternalIdentity, error) {
	defer r.s.lock()()
	for _, i := range r.s.st.d.identities {
		if match(i) {
			return &i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *identityRepo) GetByProviderSubject(_ context.Context, provider, subject string) (*entity.ExternalIdentity, error) {
	return r.find(func(i entity.ExternalIdentity) bool { return i.Provider == provider && i.SubjectID == subject })
}

func (r *identityRepo) GetByUserProvider(_ context.Context, userID, provider string) (*entity.ExternalIdentity, error) {
	return r.find(func(i entity.ExternalIdentity) bool { return i.UserID == userID && i.Provider == provider })
}

func (r *identityRepo) Create(_ context.Context, i *entity.ExternalIdentity) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, x := range d.identities {
		if (x.Provider == i.Provider && x.SubjectID == i.SubjectID) || (x.UserID == i.UserID && x.Provider == i.Provider) {
			return repository.ErrConflict
		}
	}
	i.ID = d.next()
	i.CreatedAt = r.s.st.now()
	d.identities[i.ID] = *i
	return nil
}

type profileRepo struct{ s *Store }

func (r *profileRepo) GetByUserID(_ context.Context, userID string) (*entity.Profile, error) {
	defer r.s.lock()()
	p, ok := r.s.st.d.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepo) nicknameTaken(nickname, exceptUserID string) bool {
	for uid, p := range r.s.st.d.profiles {
		if p.Nickname == nickname && uid != exceptUserID {
			return true
		}
	}
	return false
}

func (r *profileRepo) Create(_ context.Context, p *entity.Profile) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.profiles[p.UserID]; ok || r.nicknameTaken(p.Nickname, p.UserID) {
		return repository.ErrConflict
	}
	now := r.s.st.now()
	p.CreatedAt, p.UpdatedAt = now, now
	d.profiles[p.UserID] = *p
	return nil
}

func (r *profileRepo) Update(_ context.Context, p *entity.Profile) error {
	defer r.s.lock()()
	d := r.s.st.d
	cur, ok := d.profiles[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nicknameTaken(p.Nickname, p.UserID) {
		return repository.ErrConflict
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = r.s.st.now()
	d.profiles[p.UserID] = *p
	return nil
}

func (r *profileRepo) NicknameExists(_ context.Context, nickname, exceptUserID string) (bool, error) {
	defer r.s.lock()()
	return r.nicknameTaken(nickname, exceptUserID), nil
}

type agreementRepo struct{ s *Store }

func (r *agreementRepo) Create(_ context.Context, a *entity.Agreement) error {
	defer r.s.lock()()
	d := r.s.st.d
	if a.PreviousVersionID != nil {
		if _, ok := d.agreements[*a.PreviousVersionID]; !ok {
			return repository.ErrNotFound
		}
		for _, x := range d.agreements {
			if x.PreviousVersionID != nil && *x.PreviousVersionID == *a.PreviousVersionID {
				return repository.ErrConflict
			}
		}
	}
	a.ID = d.next()
	a.CreatedAt = r.s.st.now()
	cp := *a
	if a.PreviousVersionID != nil {
		prev := *a.PreviousVersionID
		cp.PreviousVersionID = &prev
	}
	d.agreements[a.ID] = cp
	return nil
}

func (r *agreementRepo) GetByID(_ context.Context, id int64) (*entity.Agreement, error) {
	defer r.s.lock()()
	a, ok := r.s.st.d.agreements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *agreementRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*entity.Agreement, error) {
	defer r.s.lock()()
	out := make(map[int64]*entity.Agreement, len(ids))
	for _, id := range ids {
		if a, ok := r.s.st.d.agreements[id]; ok {
			out[id] = &a
		}
	}
	return out, nil
}

func (r *agreementRepo) Deactivate(_ context.Context, id int64) (bool, error) {
	defer r.s.lock()()
	a, ok := r.s.st.d.agreements[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	r.s.st.d.agreements[id] = a
	return true, nil
}

func compareAgreements(a, b entity.Agreement) int {
	return cmp.Or(
		cmp.Compare(a.Order, b.Order),
		a.CreatedAt.Compare(b.CreatedAt),
		cmp.Compare(a.ID, b.ID),
	)
}

func (r *agreementRepo) ListActive(_ context.Context, limit, offset int) ([]entity.Agreement, error) {
	defer r.s.lock()()
	var out []entity.Agreement
	for _, a := range r.s.st.d.agreements {
		if a.IsActive {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, compareAgreements)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *agreementRepo) CountActive(_ context.Context) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, a := range r.s.st.d.agreements {
		if a.IsActive {
			n++
		}
	}
	return n, nil
}

type consentRepo struct{ s *Store }

func (r *consentRepo) GetByID(_ context.Context, id int64) (*entity.UserAgreement, error) {
	defer r.s.lock()()
	ua, ok := r.s.st.d.consents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ua, nil
}

func (r *consentRepo) GetByUserAndAgreement(_ context.Context, userID string, agreementID int64) (*entity.UserAgreement, error) {
	defer r.s.lock()()
	for _, ua := range r.s.st.d.consents {
		if ua.UserID == userID && ua.AgreementID == agreementID {
			return &ua, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *consentRepo) Create(_ context.Context, ua *entity.UserAgreement) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.agreements[ua.AgreementID]; !ok {
		return repository.ErrNotFound
	}
	for _, x := range d.consents {
		if x.UserID == ua.UserID && x.AgreementID == ua.AgreementID {
			return repository.ErrConflict
		}
	}
	ua.ID = d.next()
	now := r.s.st.now()
	ua.CreatedAt, ua.UpdatedAt = now, now
	d.consents[ua.ID] = *ua
	return nil
}

func (r *consentRepo) Update(_ context.Context, ua *entity.UserAgreement) error {
	defer r.s.lock()()
	cur, ok := r.s.st.d.consents[ua.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.IsAgreed = ua.IsAgreed
	cur.UpdatedAt = r.s.st.now()
	r.s.st.d.consents[ua.ID] = cur
	*ua = cur
	return nil
}

func (r *consentRepo) AppendHistory(_ context.Context, h *entity.UserAgreementHistory) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.consents[h.UserAgreementID]; !ok {
		return repository.ErrNotFound
	}
	h.ID = d.next()
	h.RecordedAt = r.s.st.now()
	d.histories = append(d.histories, *h)
	return nil
}

func (r *consentRepo) ListByUser(_ context.Context, userID string) ([]entity.UserAgreementDetail, error) {
	defer r.s.lock()()
	d := r.s.st.d
	var out []entity.UserAgreementDetail
	for _, ua := range d.consents {
		if ua.UserID != userID {
			continue
		}
		out = append(out, entity.UserAgreementDetail{UserAgreement: ua, Agreement: d.agreements[ua.AgreementID]})
	}
	slices.SortFunc(out, func(a, b entity.UserAgreementDetail) int { return compareAgreements(a.Agreement, b.Agreement) })
	return out, nil
}

func (r *consentRepo) ListHistory(_ context.Context, userAgreementID int64) ([]entity.UserAgreementHistory, error) {
	defer r.s.lock()()
	var out []entity.UserAgreementHistory
	for _, h := range r.s.st.d.histories {
		if h.UserAgreementID == userAgreementID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *consentRepo) ListAgreedUserIDs(_ context.Context, agreementID int64) ([]string, error) {
	defer r.s.lock()()
	var out []string
	for _, ua := range r.s.st.d.consents {
		if ua.AgreementID == agreementID && ua.IsAgreed {
			out = append(out, ua.UserID)
		}
	}
	slices.Sort(out)
	return out, nil
}

type tokenRepo struct{ s *Store }

func (r *tokenRepo) CreateOutstanding(_ context.Context, t *entity.OutstandingToken) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.outstanding[t.JTI]; ok {
		return repository.ErrConflict
	}
	t.CreatedAt = r.s.st.now()
	d.outstanding[t.JTI] = *t
	return nil
}

func (r *tokenRepo) Blacklist(_ context.Context, t *entity.BlacklistedToken) (bool, error) {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.blacklist[t.JTI]; ok {
		return false, nil
	}
	t.BlacklistedAt = r.s.st.now()
	d.blacklist[t.JTI] = *t
	return true, nil
}

func (r *tokenRepo) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	defer r.s.lock()()
	_, ok := r.s.st.d.blacklist[jti]
	return ok, nil
}

func (r *tokenRepo) ListOutstandingActive(_ context.Context, userID string, now time.Time) ([]entity.OutstandingToken, error) {
	defer r.s.lock()()
	d := r.s.st.d
	var out []entity.OutstandingToken
	for _, t := range d.outstanding {
		if t.UserID != userID || !t.ExpiresAt.After(now) {
			continue
		}
		if _, revoked := d.blacklist[t.JTI]; revoked {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b entity.OutstandingToken) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	d := r.s.st.d
	var n int64
	for jti, t := range d.blacklist {
		if !t.ExpiresAt.After(now) {
			delete(d.blacklist, jti)
			n++
		}
	}
	for jti, t := range d.outstanding {
		if !t.ExpiresAt.After(now) {
			delete(d.outstanding, jti)
			n++
		}
	}
	return n, nil
}
