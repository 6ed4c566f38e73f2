package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/response"
)

// APIPrefix is the versioned root every module registers under.
const APIPrefix = "/v1"

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	Logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

// NewRegistry roots the API at /v1 and answers unknown routes and methods in
// the error wire shape.
func NewRegistry(engine *gin.Engine, logger *logrus.Logger) *Registry {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) { response.Fail(c, logger, apperr.RouteNotFound) })
	engine.NoMethod(func(c *gin.Context) { response.Fail(c, logger, apperr.MethodNotAllowed) })
	api := engine.Group(APIPrefix)
	return &Registry{Engine: engine, API: api, Logger: logger}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
