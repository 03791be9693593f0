// Package verifyemail реализует GET /verify-email?token=...&callbackURL=...
package verifyemail

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Service подтверждение email.
type Service interface {
	VerifyEmail(ctx context.Context, token string, meta services.RequestMeta) (*models.User, *models.Session, error)
	CanAddDeviceSession(existing int) bool
}

// Origins проверка адреса перенаправления.
type Origins interface {
	IsTrustedOrigin(origin string) bool
}

// Handler обработчик ссылки из письма.
type Handler struct {
	log     *slog.Logger
	svc     Service
	jar     *cookies.Manager
	origins Origins
}

// New создает обработчик.
func New(log *slog.Logger, svc Service, jar *cookies.Manager, origins Origins) *Handler {
	return &Handler{log: log, svc: svc, jar: jar, origins: origins}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	user, session, err := h.svc.VerifyEmail(r.Context(), token, authhttp.Meta(r))
	if err != nil {
		authhttp.Fail(w, r, log, "email verification failed", err)
		return
	}

	if session != nil {
		snapshot := &models.SessionWithUser{Session: *session, User: *user}
		remember := h.svc.CanAddDeviceSession(len(h.jar.DeviceTokens(r)))
		if err = h.jar.SetSession(w, r, snapshot, remember); err != nil {
			authhttp.Fail(w, r, log, "failed to set session cookie", err)
			return
		}
	}

	if callback, ok := h.safeRedirect(q.Get("callbackURL")); ok {
		http.Redirect(w, r, callback, http.StatusFound)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"status": true, "user": user}))
}

// safeRedirect разрешает относительные пути и адреса доверенных origin.
// Браузеры читают обратный слеш как прямой, поэтому "/\host" тоже
// считается адресом другого хоста. Возвращает адрес с прямыми слешами.
func (h *Handler) safeRedirect(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	normalized := strings.ReplaceAll(raw, `\`, "/")
	u, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}
	if u.Scheme == "" && u.Host == "" {
		ok := strings.HasPrefix(normalized, "/") && !strings.HasPrefix(normalized, "//")
		return normalized, ok
	}
	return normalized, h.origins.IsTrustedOrigin(u.Scheme + "://" + u.Host)
}
