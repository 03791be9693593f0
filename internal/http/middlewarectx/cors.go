package middlewarectx

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/pharm-courses/auth-service/internal/authconfig"
)

// CORS разрешает запросы с cookie только с доверенных origin.
func CORS(opts *authconfig.Options) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return opts.IsTrustedOrigin(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
