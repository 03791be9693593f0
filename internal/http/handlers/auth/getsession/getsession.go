// Package getsession реализует GET /get-session. Сессию находит
// middlewarectx.LoadSession, обработчик только возвращает ее.
package getsession

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/pharm-courses/auth-service/internal/http/middlewarectx"
	"github.com/pharm-courses/auth-service/internal/http/response"
)

// Handler отдает текущую сессию или null.
type Handler struct{}

// New создает обработчик.
func New() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		render.JSON(w, r, response.Response{Status: response.StatusOK})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(snapshot))
}
