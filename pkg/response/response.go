package response

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/pkg/apperr"
)

// ErrorItem is one entry of a field's error list.
type ErrorItem struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

// ErrorBody is the error wire shape: field name to its errors, with
// "non_field" for errors not bound to a field.
type ErrorBody map[string][]ErrorItem

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Body builds the wire body for err. Unknown errors collapse to the internal
// error entry and report ok=false so callers can log the cause.
func Body(err error) (int, ErrorBody, bool) {
	list, ok := apperr.From(err)
	if !ok {
		return apperr.Internal.Status, ErrorBody{
			apperr.NonField: {{Message: apperr.Internal.Message, ErrorCode: apperr.Internal.Code}},
		}, false
	}
	body := make(ErrorBody, len(list))
	for _, e := range list {
		k := e.FieldKey()
		body[k] = append(body[k], ErrorItem{Message: e.Message, ErrorCode: e.Code})
	}
	return list.Status(), body, true
}

// Fail writes err in the wire shape and aborts the chain.
func Fail(ctx *gin.Context, log *logrus.Logger, err error) {
	status, body, ok := Body(err)
	if !ok && log != nil {
		log.WithError(err).
			WithField("request_id", ctx.GetString("request_id")).
			WithField("path", ctx.FullPath()).
			Error("unhandled error")
	}
	ctx.AbortWithStatusJSON(status, body)
}

// JSON writes a success body.
func JSON(ctx *gin.Context, status int, body any) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, body)
}

// Paginate wraps results with absolute next/previous links derived from the
// current request URL.
func Paginate[T any](ctx *gin.Context, results []T, count int64, limit, offset int) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: count, Results: results}
	if int64(offset+limit) < count {
		p.Next = pageURL(ctx, limit, offset+limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		p.Previous = pageURL(ctx, limit, prev)
	}
	return p
}

func pageURL(ctx *gin.Context, limit, offset int) *string {
	u := url.URL{Path: ctx.Request.URL.Path}
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if p := ctx.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	u.Scheme = scheme
	u.Host = ctx.Request.Host
	q := ctx.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// LimitOffset reads limit/offset query params, clamping limit to [1, max].
func LimitOffset(ctx *gin.Context, def, max int) (int, int) {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset, err := strconv.Atoi(ctx.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
