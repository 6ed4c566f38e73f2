package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AgreementHandler struct {
	Registry *application.AgreementRegistry
	Logger   *logrus.Logger
}

func NewAgreementHandler(registry *application.AgreementRegistry, logger *logrus.Logger) *AgreementHandler {
	return &AgreementHandler{Registry: registry, Logger: logger}
}

// List pages through the currently active agreements.
func (h *AgreementHandler) List(c *gin.Context) {
	limit, offset := response.LimitOffset(c, defaultPageSize, maxPageSize)
	list, count, err := h.Registry.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, response.Paginate(c, toAgreementsJSON(list), count, limit, offset))
}

func (h *AgreementHandler) Get(c *gin.Context) {
	id, err := pathID(c, apperr.AgreementNotFound)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	a, err := h.Registry.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toAgreementJSON(*a))
}

// Publish is the staff-only entry point for new agreement versions.
func (h *AgreementHandler) Publish(c *gin.Context) {
	var in application.PublishInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	a, err := h.Registry.Publish(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, toAgreementJSON(*a))
}
