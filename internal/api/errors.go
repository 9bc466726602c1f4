package api

import (
	"errors"
	"log/slog"
	"net/http"

	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOwnershipMismatch):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrInvalidOrConsumedToken),
		errors.Is(err, service.ErrInvalidSetupToken):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyClient),
		errors.Is(err, service.ErrLastSession),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// abortWithServiceError writes the error body for err. Internal errors are
// logged and replaced by a generic message.
func abortWithServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		abortWithError(c, code, "An unexpected error occurred")
		return
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(code, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}
	abortWithError(c, code, err.Error())
}
