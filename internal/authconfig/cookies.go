package authconfig

import "net/http"

// Имена cookie без префикса.
const (
	SessionTokenCookie = "session_token"
	SessionDataCookie  = "session_data"
	MultiSessionCookie = "session_token_multi-"
)

// CookieAttributes атрибуты, которые получает каждая выдаваемая cookie.
type CookieAttributes struct {
	SameSite http.SameSite
	Secure   bool
	HTTPOnly bool
	Path     string
}

// DefaultCookieAttributes кросс-сайтовая политика: фронтенд работает
// с другого origin, поэтому SameSite=None, что требует Secure.
func DefaultCookieAttributes() CookieAttributes {
	return CookieAttributes{
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
		HTTPOnly: true,
		Path:     "/",
	}
}

// Apply переносит атрибуты на cookie.
func (a CookieAttributes) Apply(c *http.Cookie) {
	c.SameSite = a.SameSite
	c.Secure = a.Secure
	c.HttpOnly = a.HTTPOnly
	c.Path = a.Path
}
