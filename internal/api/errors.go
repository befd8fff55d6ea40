package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/fleet"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// writeError maps a domain error to a status code and a single message.
// Unrecognised errors are logged and reported without detail.
func (h *Handler) writeError(c *gin.Context, err error) {
	var status int
	var msg string

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, auth.ErrTokenExpired.Error()
	case errors.Is(err, auth.ErrTokenInvalid):
		status, msg = http.StatusUnauthorized, auth.ErrTokenInvalid.Error()
	case errors.Is(err, auth.ErrUsernameTaken):
		status, msg = http.StatusBadRequest, auth.ErrUsernameTaken.Error()
	case errors.Is(err, access.ErrForbidden):
		status, msg = http.StatusForbidden, access.ErrForbidden.Error()
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "machine not found"
	case errors.Is(err, health.ErrInvalidLevel),
		errors.Is(err, fleet.ErrInvalidField),
		errors.Is(err, fleet.ErrInvalidStatus):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		h.log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		status, msg = http.StatusInternalServerError, "internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
