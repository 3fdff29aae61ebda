package api

import (
	"errors"
	"net/http"

	"github.com/reflecta/reflecta-api/internal/service"
	"github.com/reflecta/reflecta-api/internal/service/auth"
	"github.com/reflecta/reflecta-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrRevokedToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Rate limiting
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, service.ErrJournalNotFound),
		errors.Is(err, service.ErrAnalysisNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, store.ErrEmailExists),
		errors.Is(err, service.ErrJobNotResettable):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrReframeIndexOutOfRange),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrRevokedToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, auth.ErrRateLimited):
		return "Too many login attempts, try again later"

	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, store.ErrEmailExists):
		return "Email already registered"

	case errors.Is(err, service.ErrJournalNotFound):
		return "Journal not found"

	case errors.Is(err, service.ErrAnalysisNotFound):
		return "Analysis not found"

	case errors.Is(err, service.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrJobNotResettable):
		return "Job cannot be reset in its current state"

	case errors.Is(err, service.ErrReframeIndexOutOfRange):
		return "Reframe index out of range"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
