package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/social-account-service/internal/interface/http"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
)

// UserModule wires the signed-in user's /user/me routes.
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  middleware.AccessResolver
	Redis   redis.Cmdable
	Logger  *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, tokens middleware.AccessResolver, rdb redis.Cmdable, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens, Redis: rdb, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	me := rg.Group("/user/me")
	me.Use(middleware.Auth(m.Tokens, m.Logger))
	me.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil, m.Logger))
	{
		me.GET("/", m.Handler.Me)
		me.PATCH("/profile/", m.Handler.UpdateProfile)
		me.POST("/profile/avatar/", m.Handler.UploadAvatar)

		me.GET("/agreement/", m.Handler.ListAgreements)
		me.POST("/agreement/", m.Handler.GrantAgreements)
		me.PATCH("/agreement/:id/", m.Handler.UpdateAgreement)
		me.GET("/agreement/:id/history/", m.Handler.AgreementHistory)
	}
}
