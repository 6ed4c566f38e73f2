package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/pkg/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeResolver map[string]*entity.User

func (f fakeResolver) UserFromAccess(_ context.Context, token string) (*entity.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, apperr.InvalidAccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder, field string) string {
	t.Helper()
	var body map[string][]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body[field], w.Body.String())
	return body[field][0]["error_code"]
}

func TestAuth(t *testing.T) {
	tokens := fakeResolver{
		"member": {ID: "u1", Email: "member@example.com"},
		"staff":  {ID: "u2", Email: "staff@example.com", IsStaff: true},
	}
	r := gin.New()
	r.GET("/me", Auth(tokens, nil), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey)+":"+AccessToken(c))
	})
	r.GET("/admin", Auth(tokens, nil), StaffOnly(nil), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email)
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
		body   string
		code   string
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, "", "E0000001"},
		{"wrong scheme", "/me", "Basic member", http.StatusUnauthorized, "", "E0000001"},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized, "", "E0030005"},
		{"member", "/me", "Bearer member", http.StatusOK, "u1:member", ""},
		{"lowercase scheme", "/me", "bearer member", http.StatusOK, "u1:member", ""},
		{"member on admin", "/admin", "Bearer member", http.StatusForbidden, "", "E0000002"},
		{"staff on admin", "/admin", "Bearer staff", http.StatusOK, "staff@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w, apperr.NonField))
			} else {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := fakeResolver{"member": {ID: "u1", Email: "member@example.com"}}
	r := gin.New()
	r.POST("/logout", OptionalAuth(tokens, nil), func(c *gin.Context) {
		uid := "-"
		if u := CurrentUser(c); u != nil {
			uid = u.ID
		}
		c.String(http.StatusOK, uid+"|"+AccessToken(c))
	})

	cases := []struct {
		name   string
		header string
		body   string
	}{
		{"missing header", "", "-|"},
		{"malformed token", "Bearer nope", "-|nope"},
		{"wrong scheme", "Basic member", "-|"},
		{"valid token", "Bearer member", "u1|member"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/logout", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.body, w.Body.String())
		})
	}
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/login/", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	hit := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login/", nil)
		req.RemoteAddr = ip + ":4000"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("203.0.113.9").Code)
	w := hit("203.0.113.9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = hit("203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "E4290001", errorCode(t, w, apperr.NonField))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, hit("203.0.113.10").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit("203.0.113.9").Code)
}

func TestRateLimit_FailsOpenAndBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.GET("/vars", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for range 3 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vars", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	mr.Close()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/vars", nil)
	req.RemoteAddr = "198.51.100.7:5000"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.GET("/", RealIP(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("real_ip")+"|"+application.ClientIP(c.Request.Context()))
	})

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "203.0.113.5"}, "198.51.100.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"remote addr", nil, "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want+"|"+tc.want, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestIDMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	const incoming = "0190f1c2-5b7a-7c3e-9a10-3f2d4e5f6a7b"
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
}
