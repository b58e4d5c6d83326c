package middleware

import (
	"errors"
	"net/http"

	"matchpush/internal/transport/httpdto"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached via c.Error into the response
// envelope, mapping the domain sentinels onto HTTP statuses.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}

		status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
		switch {
		case errors.Is(err, matchpush_errors.ErrNotFound):
			status, code = http.StatusNotFound, "NOT_FOUND"
		case errors.Is(err, matchpush_errors.ErrInvalidInput):
			status, code = http.StatusBadRequest, "INVALID_REQUEST"
		case errors.Is(err, matchpush_errors.ErrUnauthorized):
			status, code = http.StatusUnauthorized, "UNAUTHORIZED"
		case errors.Is(err, matchpush_errors.ErrForbidden):
			status, code = http.StatusForbidden, "FORBIDDEN"
		case errors.Is(err, matchpush_errors.ErrAlreadyExists), errors.Is(err, matchpush_errors.ErrConflict):
			status, code = http.StatusConflict, "CONFLICT"
		case errors.Is(err, matchpush_errors.ErrServiceUnavailable):
			status, code = http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
		}
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}
