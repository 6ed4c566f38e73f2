package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/interface/middleware"
	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/helpers"
	"github.com/oksasatya/social-account-service/pkg/response"
)

// AccountHandler serves /account: signup, sessions, password reset and
// Google login.
type AccountHandler struct {
	Accounts           *application.AccountManager
	Cookies            *helpers.Manager
	Logger             *logrus.Logger
	SignupCompletedURL string
	OAuthCompletedURL  string
	OAuthStateTTL      time.Duration
}

func NewAccountHandler(accounts *application.AccountManager, cookies *helpers.Manager, logger *logrus.Logger, signupCompletedURL, oauthCompletedURL string, oauthStateTTL time.Duration) *AccountHandler {
	return &AccountHandler{
		Accounts:           accounts,
		Cookies:            cookies,
		Logger:             logger,
		SignupCompletedURL: signupCompletedURL,
		OAuthCompletedURL:  oauthCompletedURL,
		OAuthStateTTL:      oauthStateTTL,
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type emailResponse struct {
	Email string `json:"email"`
}

type oauthResponse struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	Status       string  `json:"status"`
	RedirectURL  string  `json:"redirect_url,omitempty"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var in application.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, emailResponse{Email: u.Email})
}

// Confirm is the link target of the signup mail. On success the browser is
// sent to the signup-completed page.
func (h *AccountHandler) Confirm(c *gin.Context) {
	var in application.ConfirmInput
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Fail(c, h.Logger, apperr.InvalidPayload.Wrap(err))
		return
	}
	email, err := h.Accounts.Confirm(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, withQuery(h.SignupCompletedURL, "email", email))
}

func (h *AccountHandler) Resend(c *gin.Context) {
	var in application.EmailInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	email, err := h.Accounts.ResendVerification(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, emailResponse{Email: email})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var in application.LoginInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	pair, err := h.Accounts.Login(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Refresh returns a new access token, plus a new refresh token when the
// presented one was close to expiry and got rotated.
func (h *AccountHandler) Refresh(c *gin.Context) {
	var in refreshRequest
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	res, err := h.Accounts.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, refreshResponse{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	var in refreshRequest
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	// an unusable access token is tolerated; only the refresh blacklist can fail
	err := h.Accounts.Logout(c.Request.Context(), middleware.CurrentUser(c), middleware.BearerToken(c), in.RefreshToken)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) PasswordReset(c *gin.Context) {
	var in application.EmailInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	email, err := h.Accounts.RequestPasswordReset(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, emailResponse{Email: email})
}

func (h *AccountHandler) PasswordChange(c *gin.Context) {
	var in application.ChangePasswordInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	email, err := h.Accounts.ChangePassword(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, emailResponse{Email: email})
}

// GoogleLogin binds a fresh state to the browser and redirects to Google.
func (h *AccountHandler) GoogleLogin(c *gin.Context) {
	id, authURL, err := h.Accounts.BeginOAuth(c.Request.Context())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetOAuthState(c, id, h.OAuthStateTTL)
	c.Redirect(http.StatusFound, authURL)
}

func (h *AccountHandler) GoogleCallback(c *gin.Context) {
	stateID := h.Cookies.OAuthState(c)
	h.Cookies.ClearOAuthState(c)

	res, err := h.Accounts.OAuthCallback(c.Request.Context(), stateID, c.Query("code"), c.Query("state"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	out := oauthResponse{Status: res.Status}
	if res.Pair != nil {
		out.AccessToken = &res.Pair.AccessToken
		out.RefreshToken = &res.Pair.RefreshToken
	}
	if h.OAuthCompletedURL != "" {
		out.RedirectURL = withQuery(h.OAuthCompletedURL, "status", res.Status)
	}
	response.JSON(c, http.StatusOK, out)
}

func withQuery(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
