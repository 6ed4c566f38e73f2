package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/response"
)

// avatarMaxBytes caps multipart avatar uploads.
const avatarMaxBytes = 5 << 20

// UserHandler serves /user/me: the signed-in user's profile and consents.
type UserHandler struct {
	Profiles *application.ProfileService
	Consents *application.ConsentLedger
	Logger   *logrus.Logger
}

func NewUserHandler(profiles *application.ProfileService, consents *application.ConsentLedger, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Profiles: profiles, Consents: consents, Logger: logger}
}

func (h *UserHandler) Me(c *gin.Context) {
	me, err := h.Profiles.GetMe(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toMeJSON(me))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var in application.UpdateProfileInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	p, err := h.Profiles.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toProfileJSON(p))
}

// UploadAvatar takes the "avatar" part of a multipart form.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, avatarMaxBytes)
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Fail(c, h.Logger, apperr.InvalidAvatar.On("avatar").Wrap(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	defer f.Close()

	avatarURL, err := h.Profiles.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"avatar_url": avatarURL})
}

func (h *UserHandler) ListAgreements(c *gin.Context) {
	list, err := h.Consents.List(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserAgreementsJSON(list))
}

// GrantAgreements records answers for the whole active agreement set.
func (h *UserHandler) GrantAgreements(c *gin.Context) {
	var in application.GrantInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	list, err := h.Consents.GrantAll(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, toUserAgreementsJSON(list))
}

func (h *UserHandler) UpdateAgreement(c *gin.Context) {
	id, err := pathID(c, apperr.UserAgreementNotFound)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	var in application.UpdateConsentInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	d, err := h.Consents.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), id, in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserAgreementJSON(*d))
}

func (h *UserHandler) AgreementHistory(c *gin.Context) {
	id, err := pathID(c, apperr.UserAgreementNotFound)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	list, err := h.Consents.History(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), id)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	out := make([]historyJSON, 0, len(list))
	for _, e := range list {
		out = append(out, historyJSON{
			ID:              e.ID,
			UserAgreementID: e.UserAgreementID,
			IsAgreed:        e.IsAgreed,
			UpdatedAt:       e.UpdatedAt,
			RecordedAt:      e.RecordedAt,
		})
	}
	response.JSON(c, http.StatusOK, out)
}
