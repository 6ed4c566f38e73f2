package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// OAuthStateCookie binds a browser to its pending OAuth state entry.
const OAuthStateCookie = "oauth_state_id"

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetOAuthState stores the opaque state id for the duration of the provider round trip.
func (m *Manager) SetOAuthState(c *gin.Context, id string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookie, id, maxAgeFrom(time.Now().Add(ttl)), "/", m.Domain, m.Secure, true)
}

// OAuthState returns the state id cookie or "".
func (m *Manager) OAuthState(c *gin.Context) string {
	v, err := c.Cookie(OAuthStateCookie)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) ClearOAuthState(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookie, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
