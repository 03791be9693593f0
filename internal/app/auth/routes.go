package auth

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/http/handlers/admin"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/getsession"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/sendverification"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/signin"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/signout"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/signup"
	"github.com/pharm-courses/auth-service/internal/http/handlers/auth/verifyemail"
	"github.com/pharm-courses/auth-service/internal/http/handlers/health"
	"github.com/pharm-courses/auth-service/internal/http/handlers/multisession"
	"github.com/pharm-courses/auth-service/internal/http/middlewarectx"
	"github.com/pharm-courses/auth-service/internal/metrics"
	authservices "github.com/pharm-courses/auth-service/internal/services/auth"
)

// Лимит запросов к маршрутам аутентификации с одного адреса.
const (
	rateLimitPerSecond = 5
	rateLimitBurst     = 20
	rateLimitTTL       = 10 * time.Minute
)

// RegisterRoutes регистрирует все маршруты сервиса. Маршруты аутентификации
// монтируются под BasePath из конфигурации.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	svc *authservices.AuthService,
	jar *cookies.Manager,
	m *metrics.Metrics,
	db health.Pinger,
) {
	opts := svc.Options()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		m.Middleware,
	)

	limiter := middlewarectx.NewRateLimiter(rateLimitPerSecond, rateLimitBurst, rateLimitTTL)

	r.Route(opts.BasePath, func(r chi.Router) {
		r.Use(middlewarectx.CORS(opts))
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
		r.Use(middlewarectx.LoadSession(svc, jar, logger))

		// Открытые конечные точки
		r.Post("/sign-up/email", signup.New(logger, svc, jar).ServeHTTP)
		r.Post("/sign-in/email", signin.New(logger, svc, jar).ServeHTTP)
		r.Post("/sign-out", signout.New(logger, svc, jar).ServeHTTP)
		r.Get("/get-session", getsession.New().ServeHTTP)
		r.Get("/verify-email", verifyemail.New(logger, svc, jar, opts).ServeHTTP)
		r.Post("/send-verification-email", sendverification.New(logger, svc).ServeHTTP)

		// Плагины, требующие сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireSession)

			if _, ok := opts.Admin(); ok {
				h := admin.New(logger, svc)
				r.Get("/admin/list-users", h.ListUsers)
				r.Post("/admin/set-role", h.SetRole)
				r.Post("/admin/ban-user", h.BanUser)
				r.Post("/admin/unban-user", h.UnbanUser)
				r.Post("/admin/list-user-sessions", h.ListUserSessions)
				r.Post("/admin/revoke-user-sessions", h.RevokeUserSessions)
			}

			if _, ok := opts.MultiSession(); ok {
				h := multisession.New(logger, svc, jar)
				r.Get("/multi-session/list-device-sessions", h.List)
				r.Post("/multi-session/set-active", h.SetActive)
				r.Post("/multi-session/revoke", h.Revoke)
			}
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(logger, db).ServeHTTP)
}
