package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

const (
	CtxUserIDKey      = "userID"
	ctxUserKey        = "user"
	ctxAccessTokenKey = "access_token"
)

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentUser returns the user set by Auth, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}

// AccessToken returns the raw access token accepted by Auth.
func AccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessTokenKey)
}
