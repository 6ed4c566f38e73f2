package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/social-account-service/pkg/apperr"
)

// bindJSON decodes the body into dst. An empty body leaves dst zero so the
// service reports the missing fields itself.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidPayload.Wrap(err)
	}
	return nil
}

// pathID parses the :id parameter; malformed ids resolve to notFound.
func pathID(c *gin.Context, notFound *apperr.Error) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
