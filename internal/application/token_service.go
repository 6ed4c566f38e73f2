package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RefreshResult always carries a new access token. RefreshToken is empty
// unless the presented refresh token was rotated.
type RefreshResult struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func (r RefreshResult) Rotated() bool { return r.RefreshToken != "" }

// TokenService mints access/refresh pairs and tracks refresh jtis in the
// outstanding and blacklisted ledgers.
type TokenService struct {
	Store           repo.Store
	JWT             *helpers.JWTManager
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	RotateThreshold time.Duration
	// BlacklistCheck makes UserFromAccess reject blacklisted access jtis.
	BlacklistCheck bool
	Logger         *logrus.Logger
}

func NewTokenService(store repo.Store, jwt *helpers.JWTManager, accessTTL, refreshTTL, rotateThreshold time.Duration, logger *logrus.Logger) *TokenService {
	return &TokenService{
		Store:           store,
		JWT:             jwt,
		AccessTTL:       accessTTL,
		RefreshTTL:      refreshTTL,
		RotateThreshold: rotateThreshold,
		Logger:          logger,
	}
}

// IssuePair generates a fresh access and refresh token for u and records the
// refresh jti as outstanding.
func (s *TokenService) IssuePair(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aclaims, err := s.JWT.Generate(u.ID, helpers.TokenTypeAccess, s.AccessTTL)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.issueRefresh(ctx, s.Store, u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aclaims.ExpiresAt.Time,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

func (s *TokenService) issueRefresh(ctx context.Context, store repo.Store, userID string) (string, time.Time, error) {
	tok, claims, err := s.JWT.Generate(userID, helpers.TokenTypeRefresh, s.RefreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := claims.ExpiresAt.Time
	if err := store.Tokens().CreateOutstanding(ctx, &entity.OutstandingToken{JTI: claims.ID, UserID: userID, ExpiresAt: exp}); err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

func refreshFailed(cause error) *apperr.Error {
	return apperr.RefreshFailed.On("refresh_token").Wrap(cause)
}

// Refresh validates refreshToken and returns a new access token. When the
// refresh token is within RotateThreshold of expiry it is blacklisted and
// replaced. Of two concurrent rotations of one jti only one succeeds.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	claims, err := s.JWT.Parse(refreshToken, helpers.TokenTypeRefresh)
	if err != nil {
		return RefreshResult{}, refreshFailed(err)
	}
	revoked, err := s.Store.Tokens().IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return RefreshResult{}, err
	}
	if revoked {
		return RefreshResult{}, refreshFailed(errors.New("token is blacklisted"))
	}
	u, err := s.Store.Users().GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.IsActive) {
		return RefreshResult{}, refreshFailed(errors.New("unknown user"))
	}
	if err != nil {
		return RefreshResult{}, err
	}

	access, aclaims, err := s.JWT.Generate(u.ID, helpers.TokenTypeAccess, s.AccessTTL)
	if err != nil {
		return RefreshResult{}, err
	}
	res := RefreshResult{AccessToken: access, AccessTokenExpiry: aclaims.ExpiresAt.Time}

	remaining := claims.ExpiresAt.Time.Sub(s.JWT.Now())
	if remaining > s.RotateThreshold {
		return res, nil
	}

	err = s.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		inserted, err := tx.Tokens().Blacklist(ctx, &entity.BlacklistedToken{
			JTI:       claims.ID,
			UserID:    u.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return refreshFailed(errors.New("token rotated concurrently"))
		}
		res.RefreshToken, res.RefreshTokenExpiry, err = s.issueRefresh(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return RefreshResult{}, err
	}
	return res, nil
}

// Blacklist revokes the session behind a logout. Problems with the access
// token are only logged; the refresh token is the authoritative session.
func (s *TokenService) Blacklist(ctx context.Context, accessToken, refreshToken string) error {
	s.blacklistAccess(ctx, accessToken)

	claims, err := s.JWT.Parse(refreshToken, helpers.TokenTypeRefresh)
	if err != nil {
		return apperr.BlacklistFailed.On("refresh_token").Wrap(err)
	}
	if _, err := s.Store.Tokens().Blacklist(ctx, &entity.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		return apperr.BlacklistFailed.On("refresh_token").Wrap(err)
	}
	return nil
}

func (s *TokenService) blacklistAccess(ctx context.Context, accessToken string) {
	if accessToken == "" {
		s.Logger.Warn("logout without access token")
		return
	}
	claims, err := s.JWT.Parse(accessToken, helpers.TokenTypeAccess)
	if err != nil {
		s.Logger.WithError(err).Warn("logout with unusable access token")
		return
	}
	if _, err := s.Store.Tokens().Blacklist(ctx, &entity.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		s.Logger.WithError(err).WithField("user_id", claims.UserID).Warn("blacklist access token failed")
	}
}

// UserFromAccess resolves the active user behind an access token.
func (s *TokenService) UserFromAccess(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := s.JWT.Parse(accessToken, helpers.TokenTypeAccess)
	if err != nil {
		return nil, apperr.InvalidAccessToken.Wrap(err)
	}
	if s.BlacklistCheck {
		revoked, err := s.Store.Tokens().IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperr.InvalidAccessToken.Wrap(errors.New("token is blacklisted"))
		}
	}
	u, err := s.Store.Users().GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.InvalidAccessToken.Wrap(err)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.InvalidAccessToken.Wrap(errors.New("inactive user"))
	}
	return u, nil
}

// RevokeAll blacklists every live refresh token of userID through store,
// which may be bound to a transaction.
func (s *TokenService) RevokeAll(ctx context.Context, store repo.Store, userID string) (int, error) {
	live, err := store.Tokens().ListOutstandingActive(ctx, userID, s.JWT.Now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range live {
		inserted, err := store.Tokens().Blacklist(ctx, &entity.BlacklistedToken{JTI: t.JTI, UserID: userID, ExpiresAt: t.ExpiresAt})
		if err != nil {
			return n, err
		}
		if inserted {
			n++
		}
	}
	return n, nil
}

// Flush removes ledger rows that have expired naturally.
func (s *TokenService) Flush(ctx context.Context) (int64, error) {
	return s.Store.Tokens().DeleteExpired(ctx, s.JWT.Now())
}
