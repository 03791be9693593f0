// Package authconfig описывает конфигурацию сервиса аутентификации курсов БПР:
// адреса, политику сессий и cookie, подтверждение email, подключенные плагины
// и дополнительные поля профиля пользователя.
//
// Options собирается один раз при старте процесса функцией New и передается
// явно в слой аутентификации.
package authconfig

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/models"
)

const (
	// BasePath путь, под которым монтируются HTTP-маршруты аутентификации.
	BasePath = "/auth"
	// CookiePrefix префикс имен всех выдаваемых cookie.
	CookiePrefix = "pharm-courses"

	// SessionExpiresIn абсолютный срок жизни сессии.
	SessionExpiresIn = 60 * 60 * 24 * 14 * time.Second
	// SessionUpdateAge шаг продления сессии при активности.
	SessionUpdateAge = 60 * 60 * 24 * time.Second
	// CookieCacheMaxAge время жизни кеша валидности сессии.
	CookieCacheMaxAge = 5 * 60 * time.Second
	// VerificationTokenExpiresIn время жизни ссылки подтверждения email.
	VerificationTokenExpiresIn = time.Hour

	securePrefix = "__Secure-"
)

// VerificationSender отправляет письмо подтверждения email.
// url уже подписан и сформирован слоем аутентификации.
type VerificationSender interface {
	SendVerificationEmail(ctx context.Context, user models.User, url string) error
}

// VerificationSenderFunc адаптер функции к VerificationSender.
type VerificationSenderFunc func(ctx context.Context, user models.User, url string) error

// SendVerificationEmail вызывает f(ctx, user, url).
func (f VerificationSenderFunc) SendVerificationEmail(ctx context.Context, user models.User, url string) error {
	return f(ctx, user, url)
}

// Options полная конфигурация сервиса аутентификации.
type Options struct {
	BaseURL           string
	BasePath          string
	TrustedOrigins    []string
	Secret            string
	EmailAndPassword  EmailAndPassword
	EmailVerification EmailVerification
	User              UserOptions
	Session           SessionOptions
	SocialProviders   map[string]SocialProvider
	Plugins           []Plugin
	Advanced          Advanced
}

// EmailAndPassword настройки входа по email и паролю.
type EmailAndPassword struct {
	Enabled                  bool
	RequireEmailVerification bool
	AutoSignIn               bool
}

// EmailVerification настройки подтверждения email.
type EmailVerification struct {
	Sender                      VerificationSender
	SendOnSignUp                bool
	AutoSignInAfterVerification bool
	ExpiresIn                   time.Duration
}

// UserOptions расширение схемы пользователя.
type UserOptions struct {
	AdditionalFields map[string]FieldSpec
}

// SessionOptions политика жизненного цикла сессии.
type SessionOptions struct {
	ExpiresIn   time.Duration
	UpdateAge   time.Duration
	CookieCache CookieCache
}

// CookieCache кеш валидности сессии, снижающий нагрузку на БД.
type CookieCache struct {
	Enabled bool
	MaxAge  time.Duration
}

// SocialProvider настройки внешнего OAuth-провайдера.
type SocialProvider struct {
	ClientID     string
	ClientSecret string
}

// Advanced настройки cookie и токенов.
type Advanced struct {
	UseSecureCookies        bool
	CookiePrefix            string
	GenerateSessionToken    bool
	DefaultCookieAttributes CookieAttributes
}

// New собирает Options из загруженного конфига. sender вызывается
// при каждой регистрации по email и паролю.
func New(cfg *config.Config, sender VerificationSender) *Options {
	return &Options{
		BaseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		BasePath:       BasePath,
		TrustedOrigins: cfg.TrustedOrigins(),
		Secret:         cfg.Secret,
		EmailAndPassword: EmailAndPassword{
			Enabled:    true,
			AutoSignIn: true,
		},
		EmailVerification: EmailVerification{
			Sender:       sender,
			SendOnSignUp: true,
			ExpiresIn:    VerificationTokenExpiresIn,
		},
		User: UserOptions{
			AdditionalFields: AdditionalFields(),
		},
		Session: SessionOptions{
			ExpiresIn: SessionExpiresIn,
			UpdateAge: SessionUpdateAge,
			CookieCache: CookieCache{
				Enabled: true,
				MaxAge:  CookieCacheMaxAge,
			},
		},
		SocialProviders: map[string]SocialProvider{},
		Plugins: []Plugin{
			NewAdminPlugin(),
			NewMultiSessionPlugin(),
		},
		Advanced: Advanced{
			UseSecureCookies:        true,
			CookiePrefix:            CookiePrefix,
			GenerateSessionToken:    true,
			DefaultCookieAttributes: DefaultCookieAttributes(),
		},
	}
}

// CookieName возвращает полное имя cookie с префиксом.
func (o *Options) CookieName(name string) string {
	full := o.Advanced.CookiePrefix + "." + name
	if o.Advanced.UseSecureCookies {
		return securePrefix + full
	}
	return full
}

// NewCookie создает cookie с атрибутами по умолчанию.
func (o *Options) NewCookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:   o.CookieName(name),
		Value:  value,
		MaxAge: int(maxAge.Seconds()),
	}
	o.Advanced.DefaultCookieAttributes.Apply(c)
	if o.Advanced.UseSecureCookies {
		c.Secure = true
	}
	return c
}

// VerificationURL формирует ссылку подтверждения email.
func (o *Options) VerificationURL(token, callbackURL string) string {
	q := url.Values{}
	q.Set("token", token)
	if callbackURL != "" {
		q.Set("callbackURL", callbackURL)
	}
	return o.BaseURL + o.BasePath + "/verify-email?" + q.Encode()
}

// IsTrustedOrigin сообщает, входит ли origin в список доверенных.
// Пустые элементы списка ничему не соответствуют.
func (o *Options) IsTrustedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, trusted := range o.TrustedOrigins {
		if trusted != "" && strings.EqualFold(strings.TrimRight(trusted, "/"), strings.TrimRight(origin, "/")) {
			return true
		}
	}
	return false
}
