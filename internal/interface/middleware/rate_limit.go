package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/pkg/apperr"
	"github.com/oksasatya/social-account-service/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
// Example: combine client IP and route path for more granular limiting
type KeyFunc func(c *gin.Context) string

// KeyByIP returns a key function that limits by client IP only
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath returns a key function that limits by client IP and request path
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// hitScript counts a hit and returns {count, pttl}; the window starts on the first hit.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

type AllowFunc func(*gin.Context) bool // return true for bypass limit

type limiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	key    KeyFunc
	allow  AllowFunc
	log    *logrus.Logger
}

// hit returns the request count in the current window and the time left in it.
func (l *limiter) hit(c *gin.Context, key string) (int, time.Duration, error) {
	res, err := hitScript.Run(c.Request.Context(), l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	return int(res[0]), time.Duration(res[1]) * time.Millisecond, nil
}

func (l *limiter) skip(c *gin.Context) bool {
	if c.Request.Method == http.MethodOptions {
		return true
	}
	return l.allow != nil && l.allow(c)
}

func (l *limiter) handle(c *gin.Context) {
	if l.skip(c) {
		c.Next()
		return
	}
	key := l.key(c)
	count, left, err := l.hit(c, key)
	if err != nil {
		// redis down: let the request through
		if l.log != nil {
			l.log.WithError(err).WithField("key", key).Warn("rate limit check failed")
		}
		c.Next()
		return
	}

	reset := strconv.Itoa(int(math.Ceil(left.Seconds())))
	c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	c.Header("X-RateLimit-Reset", reset)

	if count > l.limit {
		c.Header("Retry-After", reset)
		response.Fail(c, l.log, apperr.Throttled)
		return
	}
	c.Next()
}

// RateLimit allows limit requests per window for each key. Redis errors fail
// open, OPTIONS and allow-listed requests are not counted, and exceeding the
// limit answers 429 with the E4290001 error body.
func RateLimit(rdb redis.Cmdable, limit int, window time.Duration, keyFn KeyFunc, allow AllowFunc, log *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	l := &limiter{rdb: rdb, limit: limit, window: window, key: keyFn, allow: allow, log: log}
	return l.handle
}
