package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pharm-courses/auth-service/internal/authconfig"
	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/cookies/cookiestest"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SignUpEmail(ctx context.Context, in services.SignUpInput, meta services.RequestMeta) (*models.User, *models.Session, error) {
	args := m.Called(ctx, in, meta)
	user, _ := args.Get(0).(*models.User)
	session, _ := args.Get(1).(*models.Session)
	return user, session, args.Error(2)
}

func (m *ServiceMock) CanAddDeviceSession(existing int) bool {
	return m.Called(existing).Bool(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newJar() *cookies.Manager {
	return cookies.New(authconfig.New(&config.Config{BaseURL: config.DefaultBaseURL}, nil), cookiestest.PlainSigner{})
}

func TestSignUpHandler(t *testing.T) {
	user := &models.User{ID: "u1", Email: "olena@example.com", Profile: models.Profile{RegionCity: "Житомир"}}
	session := &models.Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name       string
		body       any
		setup      func(m *ServiceMock)
		wantStatus int
		wantCookie bool
	}{
		{
			name: "success",
			body: map[string]string{
				"name": "Олена", "email": "olena@example.com", "password": "password123",
				"region_city": "Житомир", "jobTitle": "провізор",
			},
			setup: func(m *ServiceMock) {
				m.On("SignUpEmail", mock.Anything, mock.MatchedBy(func(in services.SignUpInput) bool {
					return in.Email == "olena@example.com" &&
						in.Fields[authconfig.FieldRegionCity] == "Житомир" &&
						in.Fields[authconfig.FieldJobTitle] == "провізор"
				}), mock.Anything).Return(user, session, nil).Once()
				m.On("CanAddDeviceSession", 0).Return(true).Once()
			},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name:       "invalid json",
			body:       "not json",
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation error",
			body:       map[string]string{"name": "x", "email": "bad", "password": "short"},
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "user exists",
			body: map[string]string{"name": "x", "email": "a@b.com", "password": "password123"},
			setup: func(m *ServiceMock) {
				m.On("SignUpEmail", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, nil, services.ErrUserExists).Once()
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "mail provider failure",
			body: map[string]string{"name": "x", "email": "a@b.com", "password": "password123"},
			setup: func(m *ServiceMock) {
				m.On("SignUpEmail", mock.Anything, mock.Anything, mock.Anything).
					Return(user, nil, errors.Join(services.ErrVerificationEmail, errors.New("down"))).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(newNoopLogger(), svc, newJar())

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-up/email", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var found bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == "__Secure-pharm-courses.session_token" {
					found = true
					assert.Equal(t, cookiestest.Sign("tok"), c.Value)
				}
			}
			assert.Equal(t, tt.wantCookie, found)

			if tt.wantStatus == http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				data := resp["data"].(map[string]any)
				assert.Equal(t, "tok", data["token"])
				assert.Equal(t, "Житомир", data["user"].(map[string]any)["region_city"])
			}
			svc.AssertExpectations(t)
		})
	}
}
