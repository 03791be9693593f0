// Package signup реализует POST /sign-up/email: регистрацию по email и паролю
// с дополнительными полями профиля.
package signup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pharm-courses/auth-service/internal/authconfig"
	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	services "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Request входные данные регистрации.
type Request struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Image       string `json:"image,omitempty"`
	CallbackURL string `json:"callbackURL,omitempty"`
	Phone       string `json:"phone,omitempty" validate:"max=50"`
	RegionCity  string `json:"region_city,omitempty" validate:"max=200"`
	Education   string `json:"education,omitempty" validate:"max=500"`
	Specialty   string `json:"specialty,omitempty" validate:"max=200"`
	Workplace   string `json:"workplace,omitempty" validate:"max=500"`
	JobTitle    string `json:"jobTitle,omitempty" validate:"max=200"`
}

func (req Request) fields() map[string]string {
	return map[string]string{
		authconfig.FieldPhone:      req.Phone,
		authconfig.FieldRegionCity: req.RegionCity,
		authconfig.FieldEducation:  req.Education,
		authconfig.FieldSpecialty:  req.Specialty,
		authconfig.FieldWorkplace:  req.Workplace,
		authconfig.FieldJobTitle:   req.JobTitle,
	}
}

// Service регистрация пользователя.
type Service interface {
	SignUpEmail(ctx context.Context, in services.SignUpInput, meta services.RequestMeta) (*models.User, *models.Session, error)
	CanAddDeviceSession(existing int) bool
}

// Handler обработчик регистрации.
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
	const op = "handlers.auth.signup"

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

	user, session, err := h.svc.SignUpEmail(r.Context(), services.SignUpInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Image:       req.Image,
		CallbackURL: req.CallbackURL,
		Fields:      req.fields(),
	}, authhttp.Meta(r))
	if err != nil {
		authhttp.Fail(w, r, log, "registration failed", err)
		return
	}

	var token string
	if session != nil {
		snapshot := &models.SessionWithUser{Session: *session, User: *user}
		remember := h.svc.CanAddDeviceSession(len(h.jar.DeviceTokens(r)))
		if err = h.jar.SetSession(w, r, snapshot, remember); err != nil {
			authhttp.Fail(w, r, log, "failed to set session cookie", err)
			return
		}
		token = session.Token
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
