package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/social-account-service/internal/interface/http"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
)

// AccountModule wires the public /account routes.
// Public: register, confirm, resend, login, refresh, password reset/change,
// google login/callback, agreement list/detail
// Optional auth: logout (the refresh token in the body is what ends the session)
type AccountModule struct {
	Handler    *handlers.AccountHandler
	Agreements *handlers.AgreementHandler
	Tokens     middleware.AccessResolver
	Redis      redis.Cmdable
	Logger     *logrus.Logger
}

func NewAccountModule(h *handlers.AccountHandler, agreements *handlers.AgreementHandler, tokens middleware.AccessResolver, rdb redis.Cmdable, logger *logrus.Logger) *AccountModule {
	return &AccountModule{Handler: h, Agreements: agreements, Tokens: tokens, Redis: rdb, Logger: logger}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	limit := func(perMinute int) gin.HandlerFunc {
		return middleware.RateLimit(m.Redis, perMinute, time.Minute, middleware.KeyByIPAndPath(), nil, m.Logger)
	}

	account := rg.Group("/account")
	account.POST("/register/", limit(10), m.Handler.Register)
	account.GET("/register/confirm/", limit(30), m.Handler.Confirm)
	account.POST("/register/resend/", limit(5), m.Handler.Resend)
	account.POST("/login/", limit(10), m.Handler.Login)
	account.POST("/refresh/", limit(60), m.Handler.Refresh)
	account.POST("/password/reset/", limit(5), m.Handler.PasswordReset)
	account.POST("/password/change/", limit(30), m.Handler.PasswordChange)

	account.GET("/google/login/", m.Handler.GoogleLogin)
	account.GET("/google/callback/", m.Handler.GoogleCallback)

	account.GET("/agreement/", m.Agreements.List)
	account.GET("/agreement/:id/", m.Agreements.Get)

	account.POST("/logout/", limit(60), middleware.OptionalAuth(m.Tokens, m.Logger), m.Handler.Logout)
}
