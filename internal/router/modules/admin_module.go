package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/social-account-service/internal/interface/http"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
)

// AdminModule exposes staff-only agreement publishing.
type AdminModule struct {
	Agreements *handlers.AgreementHandler
	Tokens     middleware.AccessResolver
	Logger     *logrus.Logger
}

func NewAdminModule(agreements *handlers.AgreementHandler, tokens middleware.AccessResolver, logger *logrus.Logger) *AdminModule {
	return &AdminModule{Agreements: agreements, Tokens: tokens, Logger: logger}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(m.Tokens, m.Logger), middleware.StaffOnly(m.Logger))
	admin.POST("/agreement/", m.Agreements.Publish)
}
