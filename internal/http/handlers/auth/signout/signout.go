// Package signout реализует POST /sign-out.
package signout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
)

// Service завершение сессии.
type Service interface {
	SignOut(ctx context.Context, token string) error
}

// Handler обработчик выхода. Закрывает активную сессию и все сессии,
// запомненные в браузере.
type Handler struct {
	log *slog.Logger
	svc Service
	jar *cookies.Manager
}

// New создает обработчик.
func New(log *slog.Logger, svc Service, jar *cookies.Manager) *Handler {
	return &Handler{log: log, svc: svc, jar: jar}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokens := h.jar.DeviceTokens(r)
	if token, ok := h.jar.SessionToken(r); ok {
		tokens = append(tokens, token)
	}
	for _, token := range tokens {
		if err := h.svc.SignOut(r.Context(), token); err != nil {
			authhttp.Fail(w, r, log, "sign-out failed", err)
			return
		}
	}

	h.jar.ClearSession(w)
	h.jar.ForgetAllDeviceSessions(w, r)
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"success": true}))
}
