// Package admin реализует маршруты плагина admin: список пользователей,
// смена роли, блокировка и закрытие сессий пользователя.
// Все маршруты требуют сессии с ролью администратора.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/middlewarectx"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Service операции плагина admin.
type Service interface {
	ListUsers(ctx context.Context, actor *models.User, q services.ListUsersQuery) (*services.UserPage, error)
	SetRole(ctx context.Context, actor *models.User, userID, role string) error
	BanUser(ctx context.Context, actor *models.User, userID, reason string, duration time.Duration) error
	UnbanUser(ctx context.Context, actor *models.User, userID string) error
	ListUserSessions(ctx context.Context, actor *models.User, userID string) ([]*models.Session, error)
	RevokeUserSessions(ctx context.Context, actor *models.User, userID string) (int, error)
}

// SetRoleRequest смена роли.
type SetRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=user admin"`
}

// BanRequest блокировка. BanExpiresIn в секундах, 0 для бессрочной.
type BanRequest struct {
	UserID       string `json:"userId" validate:"required"`
	BanReason    string `json:"banReason,omitempty" validate:"max=500"`
	BanExpiresIn int64  `json:"banExpiresIn,omitempty" validate:"min=0"`
}

// UserRequest операция над одним пользователем.
type UserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Handlers набор обработчиков плагина admin.
type Handlers struct {
	log      *slog.Logger
	svc      Service
	validate *validator.Validate
}

// New создает обработчики.
func New(log *slog.Logger, svc Service) *Handlers {
	return &Handlers{log: log, svc: svc, validate: validator.New()}
}

func (h *Handlers) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func actor(r *http.Request) *models.User {
	snapshot, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		return nil
	}
	return &snapshot.User
}

// decode читает и проверяет тело запроса. false означает, что ответ уже записан.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return false
	}
	return true
}

// ListUsers GET /admin/list-users?searchValue=&limit=&offset=
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.ListUsers")

	q := r.URL.Query()
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}
	offset, err := optionalInt(q.Get("offset"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid offset"))
		return
	}

	page, err := h.svc.ListUsers(r.Context(), actor(r), services.ListUsersQuery{
		Search: q.Get("searchValue"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		authhttp.Fail(w, r, log, "failed to list users", err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(page))
}

// SetRole POST /admin/set-role
func (h *Handlers) SetRole(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.SetRole")

	var req SetRoleRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.svc.SetRole(r.Context(), actor(r), req.UserID, req.Role); err != nil {
		authhttp.Fail(w, r, log, "failed to set role", err)
		return
	}
	render.JSON(w, r, response.OK())
}

// BanUser POST /admin/ban-user
func (h *Handlers) BanUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.BanUser")

	var req BanRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	duration := time.Duration(req.BanExpiresIn) * time.Second
	if err := h.svc.BanUser(r.Context(), actor(r), req.UserID, req.BanReason, duration); err != nil {
		authhttp.Fail(w, r, log, "failed to ban user", err)
		return
	}
	render.JSON(w, r, response.OK())
}

// UnbanUser POST /admin/unban-user
func (h *Handlers) UnbanUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.UnbanUser")

	var req UserRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.svc.UnbanUser(r.Context(), actor(r), req.UserID); err != nil {
		authhttp.Fail(w, r, log, "failed to unban user", err)
		return
	}
	render.JSON(w, r, response.OK())
}

// ListUserSessions POST /admin/list-user-sessions
func (h *Handlers) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.ListUserSessions")

	var req UserRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	sessions, err := h.svc.ListUserSessions(r.Context(), actor(r), req.UserID)
	if err != nil {
		authhttp.Fail(w, r, log, "failed to list user sessions", err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"sessions": sessions}))
}

// RevokeUserSessions POST /admin/revoke-user-sessions
func (h *Handlers) RevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.RevokeUserSessions")

	var req UserRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	n, err := h.svc.RevokeUserSessions(r.Context(), actor(r), req.UserID)
	if err != nil {
		authhttp.Fail(w, r, log, "failed to revoke sessions", err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]int{"revoked": n}))
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
