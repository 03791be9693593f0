package authhttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pharm-courses/auth-service/internal/lib/password"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("op: %w", services.ErrSessionExpired), http.StatusUnauthorized},
		{services.ErrUserExists, http.StatusUnprocessableEntity},
		{password.ErrTooShort, http.StatusBadRequest},
		{fmt.Errorf("services.auth.SetRole: %w %q", services.ErrUnknownRole, "root"), http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrUserNotFound, http.StatusNotFound},
		{services.ErrVerificationEmail, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, _ := StatusFor(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeta(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4242"
	req.Header.Set("User-Agent", "test-agent")

	meta := Meta(req)
	assert.Equal(t, "192.0.2.10", meta.IPAddress)
	assert.Equal(t, "test-agent", meta.UserAgent)
}
