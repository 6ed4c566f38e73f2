package application

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/validation"
)

// ProfileService serves the signed-in user's own account view.
type ProfileService struct {
	Store    repo.Store
	Consents *ConsentLedger
	Avatars  AvatarStorage
	Logger   *logrus.Logger
}

// Me is the account view returned to the signed-in user.
type Me struct {
	User              *entity.User
	Profile           *entity.Profile
	PendingAgreements []entity.Agreement
}

func (m *Me) IsOnboarded() bool { return len(m.PendingAgreements) == 0 }

type UpdateProfileInput struct {
	Nickname string `json:"nickname" validate:"required,nickname"`
}

var profileCatalog = validation.Catalog{
	"nickname": apperr.InvalidNickname,
}

func (s *ProfileService) GetMe(ctx context.Context, u *entity.User) (*Me, error) {
	me := &Me{User: u}
	p, err := s.Store.Profiles().GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		me.Profile = p
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	if me.PendingAgreements, err = s.Consents.PendingRequired(ctx, u.ID); err != nil {
		return nil, err
	}
	return me, nil
}

// UpdateProfile sets the nickname, creating the profile on first use.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.Profile, error) {
	if err := validation.Struct(in, profileCatalog); err != nil {
		return nil, err
	}
	var out *entity.Profile
	err := s.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		taken, err := tx.Profiles().NicknameExists(ctx, in.Nickname, userID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.NicknameInUse.On("nickname")
		}
		p, err := tx.Profiles().GetByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			p = &entity.Profile{UserID: userID, Nickname: in.Nickname}
			err = tx.Profiles().Create(ctx, p)
		} else if err == nil {
			p.Nickname = in.Nickname
			err = tx.Profiles().Update(ctx, p)
		}
		if errors.Is(err, repo.ErrConflict) {
			return apperr.NicknameInUse.On("nickname")
		}
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadAvatar stores an image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.InvalidAvatar.On("avatar")
	}
	if s.Avatars == nil {
		return "", errors.New("avatar storage not configured")
	}
	url, err := s.Avatars.Upload(ctx, userID, filename, contentType, r)
	if err != nil {
		return "", err
	}
	err = s.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		p, err := tx.Profiles().GetByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			nickname, err := pickNickname(ctx, tx.Profiles(), "", userID)
			if err != nil {
				return err
			}
			return tx.Profiles().Create(ctx, &entity.Profile{UserID: userID, Nickname: nickname, AvatarURL: url})
		}
		if err != nil {
			return err
		}
		p.AvatarURL = url
		return tx.Profiles().Update(ctx, p)
	})
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("avatar uploaded but profile not updated")
		return "", err
	}
	return url, nil
}
