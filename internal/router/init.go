package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/container"
	handlers "github.com/oksasatya/social-account-service/internal/interface/http"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
	"github.com/oksasatya/social-account-service/internal/router/modules"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

// Deps is everything the modules need to register their routes.
type Deps struct {
	Accounts     *handlers.AccountHandler
	Agreements   *handlers.AgreementHandler
	Users        *handlers.UserHandler
	Tokens       middleware.AccessResolver
	Redis        redis.Cmdable
	Logger       *logrus.Logger
	DebugMetrics bool
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := container.GetServices()

	return Deps{
		Accounts: handlers.NewAccountHandler(
			svc.Accounts,
			helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
			logger,
			cfg.SignupCompletedURL,
			cfg.OAuthCompletedURL,
			cfg.OAuthStateTTL,
		),
		Agreements:   handlers.NewAgreementHandler(svc.Agreements, logger),
		Users:        handlers.NewUserHandler(svc.Profiles, svc.Consents, logger),
		Tokens:       svc.Tokens,
		Redis:        container.GetRedis(),
		Logger:       logger,
		DebugMetrics: cfg.DebugMetricsEnabled,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	Mount(r, buildDeps())
}

// Mount adds every module built from d.
func Mount(r *Registry, d Deps) {
	r.Add(modules.NewAccountModule(d.Accounts, d.Agreements, d.Tokens, d.Redis, d.Logger))
	r.Add(modules.NewUserModule(d.Users, d.Tokens, d.Redis, d.Logger))
	r.Add(modules.NewAdminModule(d.Agreements, d.Tokens, d.Logger))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(d.Redis, d.Logger))
	}
}
