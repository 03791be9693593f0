// Package middlewarectx содержит HTTP middleware сервиса аутентификации.
//
// LoadSession находит сессию по cookie и кладет ее в контекст запроса,
// RequireSession отвечает 401, если сессии нет. CORS пропускает только
// доверенные origin, RateLimitMiddleware ограничивает частоту запросов с одного адреса.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Session ключ снимка сессии в контексте.
const Session Key = "session"

// WithSession кладет снимок сессии в контекст.
func WithSession(ctx context.Context, snapshot *models.SessionWithUser) context.Context {
	return context.WithValue(ctx, Session, snapshot)
}

// SessionFrom достает снимок сессии из контекста.
func SessionFrom(ctx context.Context) (*models.SessionWithUser, bool) {
	snapshot, ok := ctx.Value(Session).(*models.SessionWithUser)
	return snapshot, ok && snapshot != nil
}

// LoadSession ищет сессию по cookie. Снимок из cookie cache используется без
// обращения к сервису. Продленная сессия получает новые cookie.
// Запрос без сессии проходит дальше без значения в контексте.
func LoadSession(svc SessionService, jar *cookies.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.LoadSession"

			token, ok := jar.SessionToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if snapshot, ok := svc.SessionFromDataCookie(jar.SessionData(r), token); ok {
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), snapshot)))
				return
			}

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			snapshot, refreshed, err := svc.GetSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrSessionNotFound) &&
					!errors.Is(err, services.ErrSessionExpired) &&
					!errors.Is(err, services.ErrUserBanned) {
					log.Error("failed to load session", sl.Err(err))
				}
				jar.ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			if refreshed {
				err = jar.SetSession(w, r, snapshot, false)
			} else {
				err = jar.SetSessionData(w, snapshot)
			}
			if err != nil {
				log.Warn("failed to refresh session cookies", sl.Err(err))
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), snapshot)))
		})
	}
}

// RequireSession пропускает только запросы с сессией в контексте.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
