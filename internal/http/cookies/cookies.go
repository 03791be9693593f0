// Package cookies выдает и читает cookie сессий: основную cookie с токеном,
// cookie cache со снимком сессии и cookie плагина multi-session.
package cookies

import (
	"net/http"
	"strings"
	"time"

	"github.com/pharm-courses/auth-service/internal/authconfig"
	"github.com/pharm-courses/auth-service/internal/models"
)

// Signer подписывает и проверяет значения cookie.
type Signer interface {
	SessionCookieValue(session *models.Session) (string, error)
	TokenFromCookie(value string) (string, error)
	SessionDataCookieValue(snapshot *models.SessionWithUser) (string, error)
}

// Manager работает с cookie по политике authconfig.Options.
type Manager struct {
	opts   *authconfig.Options
	signer Signer
	now    func() time.Time
}

// New создает Manager.
func New(opts *authconfig.Options, signer Signer) *Manager {
	return &Manager{opts: opts, signer: signer, now: time.Now}
}

// SessionToken возвращает проверенный токен активной сессии.
func (m *Manager) SessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.opts.CookieName(authconfig.SessionTokenCookie))
	if err != nil || c.Value == "" {
		return "", false
	}
	token, err := m.signer.TokenFromCookie(c.Value)
	if err != nil {
		return "", false
	}
	return token, true
}

// SessionData значение cookie cache, если оно есть.
func (m *Manager) SessionData(r *http.Request) string {
	c, err := r.Cookie(m.opts.CookieName(authconfig.SessionDataCookie))
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSession выдает cookie активной сессии и запоминает ее в списке сессий браузера.
func (m *Manager) SetSession(w http.ResponseWriter, r *http.Request, snapshot *models.SessionWithUser, remember bool) error {
	value, err := m.signer.SessionCookieValue(&snapshot.Session)
	if err != nil {
		return err
	}
	maxAge := snapshot.Session.ExpiresAt.Sub(m.now())
	http.SetCookie(w, m.opts.NewCookie(authconfig.SessionTokenCookie, value, maxAge))

	if remember {
		name := multiSessionName(snapshot.Session.Token)
		if _, err := r.Cookie(m.opts.CookieName(name)); err != nil {
			http.SetCookie(w, m.opts.NewCookie(name, value, maxAge))
		}
	}
	return m.SetSessionData(w, snapshot)
}

// SetSessionData обновляет cookie cache.
func (m *Manager) SetSessionData(w http.ResponseWriter, snapshot *models.SessionWithUser) error {
	data, err := m.signer.SessionDataCookieValue(snapshot)
	if err != nil {
		return err
	}
	if data == "" {
		return nil
	}
	maxAge := min(m.opts.Session.CookieCache.MaxAge, snapshot.Session.ExpiresAt.Sub(m.now()))
	http.SetCookie(w, m.opts.NewCookie(authconfig.SessionDataCookie, data, maxAge))
	return nil
}

// ClearSession удаляет cookie активной сессии и cookie cache.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	m.expire(w, m.opts.CookieName(authconfig.SessionTokenCookie))
	m.expire(w, m.opts.CookieName(authconfig.SessionDataCookie))
}

// DeviceTokens токены всех сессий, запомненных в браузере.
func (m *Manager) DeviceTokens(r *http.Request) []string {
	prefix := m.opts.CookieName(authconfig.MultiSessionCookie)
	var tokens []string
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		if token, err := m.signer.TokenFromCookie(c.Value); err == nil {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// ForgetDeviceSession удаляет сессию из списка сессий браузера.
func (m *Manager) ForgetDeviceSession(w http.ResponseWriter, token string) {
	m.expire(w, m.opts.CookieName(multiSessionName(token)))
}

// ForgetAllDeviceSessions удаляет все cookie multi-session из запроса.
func (m *Manager) ForgetAllDeviceSessions(w http.ResponseWriter, r *http.Request) {
	prefix := m.opts.CookieName(authconfig.MultiSessionCookie)
	for _, c := range r.Cookies() {
		if strings.HasPrefix(c.Name, prefix) {
			m.expire(w, c.Name)
		}
	}
}

func (m *Manager) expire(w http.ResponseWriter, fullName string) {
	c := &http.Cookie{Name: fullName, MaxAge: -1}
	m.opts.Advanced.DefaultCookieAttributes.Apply(c)
	if m.opts.Advanced.UseSecureCookies {
		c.Secure = true
	}
	http.SetCookie(w, c)
}

func multiSessionName(token string) string {
	return authconfig.MultiSessionCookie + strings.ToLower(token)
}
