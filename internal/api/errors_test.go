package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reflecta/reflecta-api/internal/service"
	"github.com/reflecta/reflecta-api/internal/service/auth"
	"github.com/reflecta/reflecta-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{auth.ErrExpiredToken, http.StatusUnauthorized},
		{auth.ErrRevokedToken, http.StatusUnauthorized},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrRateLimited, http.StatusTooManyRequests},
		{service.ErrJournalNotFound, http.StatusNotFound},
		{service.ErrAnalysisNotFound, http.StatusNotFound},
		{service.ErrJobNotFound, http.StatusNotFound},
		{store.ErrUserNotFound, http.StatusNotFound},
		{auth.ErrEmailTaken, http.StatusConflict},
		{store.ErrEmailExists, http.StatusConflict},
		{service.ErrJobNotResettable, http.StatusConflict},
		{service.ErrReframeIndexOutOfRange, http.StatusBadRequest},
		{store.ErrInvalidEntity, http.StatusBadRequest},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), "error %v", tc.err)
	}

	t.Run("wrapped sentinels map the same way", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("handling request: %w", service.ErrJournalNotFound)
		assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(wrapped))
	})
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Invalid email or password", GetSafeErrorMessage(auth.ErrInvalidCredentials))
	assert.Equal(t, "Journal not found", GetSafeErrorMessage(service.ErrJournalNotFound))
	assert.Equal(t, "User not found", GetSafeErrorMessage(store.ErrUserNotFound))
	assert.Equal(t, "Job cannot be reset in its current state", GetSafeErrorMessage(service.ErrJobNotResettable))

	// Internal details never leak through.
	leaky := errors.New("pq: connection to postgres://user:pass@db failed")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
}
