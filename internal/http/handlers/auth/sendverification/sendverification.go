// Package sendverification реализует POST /send-verification-email.
package sendverification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pharm-courses/auth-service/internal/http/handlers/authhttp"
	"github.com/pharm-courses/auth-service/internal/http/response"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

// Request адрес, на который нужно повторно отправить письмо.
type Request struct {
	Email       string `json:"email" validate:"required,email"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

// Service повторная отправка письма подтверждения.
type Service interface {
	SendVerificationEmail(ctx context.Context, email, callbackURL string) error
}

// Handler обработчик повторной отправки.
type Handler struct {
	log      *slog.Logger
	svc      Service
	validate *validator.Validate
}

// New создает обработчик.
func New(log *slog.Logger, svc Service) *Handler {
	return &Handler{log: log, svc: svc, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.sendverification"

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

	if err := h.svc.SendVerificationEmail(r.Context(), req.Email, req.CallbackURL); err != nil {
		authhttp.Fail(w, r, log, "failed to resend verification email", err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"status": true}))
}
