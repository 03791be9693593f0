// Package authhttp общие помощники обработчиков аутентификации:
// соответствие ошибок сервиса HTTP-статусам и сведения о клиенте.
package authhttp

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/password"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// StatusFor HTTP-статус и текст ответа для ошибки сервиса.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrSessionExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrUserExists):
		return http.StatusUnprocessableEntity, "user already exists"
	case errors.Is(err, services.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid email"
	case errors.Is(err, password.ErrTooShort):
		return http.StatusBadRequest, "password too short"
	case errors.Is(err, password.ErrTooLong):
		return http.StatusBadRequest, "password too long"
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusBadRequest, "invalid token"
	case errors.Is(err, services.ErrEmailNotVerified):
		return http.StatusForbidden, "email is not verified"
	case errors.Is(err, services.ErrUserBanned):
		return http.StatusForbidden, "user is banned"
	case errors.Is(err, services.ErrUnknownRole):
		return http.StatusBadRequest, "unknown role"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, services.ErrDisabled):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrVerificationEmail):
		return http.StatusBadGateway, "failed to send verification email"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// Fail пишет ответ с ошибкой. Ошибки сервера логируются как error,
// ошибки клиента как info.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	status, text := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Info(msg, slog.Int("status", status), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(text))
}

// Meta сведения о клиенте для новой сессии.
func Meta(r *http.Request) services.RequestMeta {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return services.RequestMeta{IPAddress: ip, UserAgent: r.UserAgent()}
}
