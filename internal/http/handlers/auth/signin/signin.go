// Package signin реализует POST /sign-in/email.
package signin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Request входные данные входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service вход по email и паролю.
type Service interface {
	SignInEmail(ctx context.Context, email, password string, meta services.RequestMeta) (*models.User, *models.Session, error)
	CanAddDeviceSession(existing int) bool
}

// Handler обработчик входа.
type Handler struct {
	log      *slog.Logger
	svc      Service
	jar      *cookies.Manager
	validate *validator.Validate
}

// New создает обработчик.
func New(log *slog.Logger, svc Service, jar *cookies.Manager) *Handler {
	return &Handler{
		log:      log,
		svc:      svc,
		jar:      jar,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	user, session, err := h.svc.SignInEmail(r.Context(), req.Email, req.Password, authhttp.Meta(r))
	if err != nil {
		authhttp.Fail(w, r, log, "sign-in failed", err)
		return
	}

	snapshot := &models.SessionWithUser{Session: *session, User: *user}
	remember := h.svc.CanAddDeviceSession(len(h.jar.DeviceTokens(r)))
	if err = h.jar.SetSession(w, r, snapshot, remember); err != nil {
		authhttp.Fail(w, r, log, "failed to set session cookie", err)
		return
	}
	log.Info("user signed in", slog.String("user_id", user.ID))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": session.Token,
		"user":  user,
	}))
}
