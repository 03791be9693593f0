// Package multisession реализует маршруты плагина multi-session:
// список сессий браузера, переключение активной сессии и закрытие одной из них.
package multisession

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
)

// Service операции плагина multi-session.
type Service interface {
	ListDeviceSessions(ctx context.Context, tokens []string) ([]*models.SessionWithUser, error)
	SetActiveSession(ctx context.Context, tokens []string, token string) (*models.SessionWithUser, error)
	RevokeDeviceSession(ctx context.Context, tokens []string, token, activeToken string) (*models.SessionWithUser, error)
}

// TokenRequest операция над одной сессией браузера.
type TokenRequest struct {
	SessionToken string `json:"sessionToken"`
}

// Handlers набор обработчиков плагина multi-session.
type Handlers struct {
	log *slog.Logger
	svc Service
	jar *cookies.Manager
}

// New создает обработчики.
func New(log *slog.Logger, svc Service, jar *cookies.Manager) *Handlers {
	return &Handlers{log: log, svc: svc, jar: jar}
}

func (h *Handlers) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionToken == "" {
		log.Info("invalid request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("sessionToken is required"))
		return "", false
	}
	return req.SessionToken, true
}

// List GET /multi-session/list-device-sessions
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.multisession.List")

	sessions, err := h.svc.ListDeviceSessions(r.Context(), h.jar.DeviceTokens(r))
	if err != nil {
		authhttp.Fail(w, r, log, "failed to list device sessions", err)
		return
	}
	if sessions == nil {
		sessions = []*models.SessionWithUser{}
	}
	render.JSON(w, r, response.StatusOKWithData(sessions))
}

// SetActive POST /multi-session/set-active
func (h *Handlers) SetActive(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.multisession.SetActive")

	token, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	snapshot, err := h.svc.SetActiveSession(r.Context(), h.jar.DeviceTokens(r), token)
	if err != nil {
		authhttp.Fail(w, r, log, "failed to set active session", err)
		return
	}
	if err = h.jar.SetSession(w, r, snapshot, false); err != nil {
		authhttp.Fail(w, r, log, "failed to set session cookie", err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(snapshot))
}

// Revoke POST /multi-session/revoke
func (h *Handlers) Revoke(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.multisession.Revoke")

	token, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	active, _ := h.jar.SessionToken(r)
	next, err := h.svc.RevokeDeviceSession(r.Context(), h.jar.DeviceTokens(r), token, active)
	if err != nil {
		authhttp.Fail(w, r, log, "failed to revoke device session", err)
		return
	}

	h.jar.ForgetDeviceSession(w, token)
	switch {
	case next != nil:
		if err = h.jar.SetSession(w, r, next, false); err != nil {
			authhttp.Fail(w, r, log, "failed to set session cookie", err)
			return
		}
	case token == active:
		h.jar.ClearSession(w)
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"status": true}))
}
