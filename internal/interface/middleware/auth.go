package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/response"
)

// AccessResolver is satisfied by application.TokenService.
type AccessResolver interface {
	UserFromAccess(ctx context.Context, accessToken string) (*entity.User, error)
}

// Auth validates the Bearer access token and stores the user in the Gin
// context (keys: userID, user, access_token).
func Auth(tokens AccessResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Fail(c, log, apperr.Unauthenticated)
			return
		}
		u, err := tokens.UserFromAccess(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, log, err)
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(ctxUserKey, u)
		c.Set(ctxAccessTokenKey, token)
		c.Next()
	}
}

// OptionalAuth never aborts. A present Bearer token is stored under
// access_token; the user is attached only when the token resolves.
func OptionalAuth(tokens AccessResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(ctxAccessTokenKey, token)
		u, err := tokens.UserFromAccess(c.Request.Context(), token)
		if err != nil {
			if log != nil {
				log.WithError(err).WithField("path", c.FullPath()).Debug("access token not resolved")
			}
			c.Next()
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// StaffOnly must run after Auth.
func StaffOnly(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Fail(c, log, apperr.Unauthenticated)
			return
		}
		if !u.IsStaff {
			response.Fail(c, log, apperr.Forbidden)
			return
		}
		c.Next()
	}
}
