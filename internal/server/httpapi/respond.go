package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avidalm/iptvgate/internal/common"
)

// envelope is the uniform response shape. Either Data or Error is set.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondList(c *gin.Context, items any, count int) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: items, Count: &count})
}

// statusForError maps service errors to HTTP statuses and client-safe
// messages. Anything unrecognized is an internal error whose detail stays
// out of the response unless debug mode is on.
func statusForError(err error, debug bool) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrDuplicateIdentity):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, common.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "authentication failed"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, common.ErrUpstreamAuthFailed):
		return http.StatusUnauthorized, "provider rejected the stored credentials"
	case errors.Is(err, common.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, "provider timed out"
	case errors.Is(err, common.ErrUpstreamUnreachable):
		return http.StatusServiceUnavailable, "provider unreachable"
	case errors.Is(err, common.ErrUpstreamServerError):
		return http.StatusBadGateway, "provider returned an error"
	default:
		if debug {
			return http.StatusInternalServerError, err.Error()
		}
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := statusForError(err, s.debug)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: msg})
}
