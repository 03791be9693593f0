// Package services содержит слой аутентификации, который исполняет конфигурацию
// authconfig.Options: регистрацию и вход по email и паролю, сессии с продлением,
// подтверждение email и операции плагинов admin и multi-session.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/pharm-courses/auth-service/internal/authconfig"
	"github.com/pharm-courses/auth-service/internal/lib/jwt"
	"github.com/pharm-courses/auth-service/internal/lib/password"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	sender "github.com/pharm-courses/auth-service/internal/services/sender"
	"github.com/pharm-courses/auth-service/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("forbidden")
	ErrUserBanned         = errors.New("user is banned")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrDisabled           = errors.New("feature is disabled")
	ErrUnknownRole        = errors.New("unknown role")
	// ErrVerificationEmail письмо подтверждения не отправлено и не поставлено в очередь.
	ErrVerificationEmail = errors.New("failed to send verification email")
)

// Результаты для метрик.
const (
	resultOK    = "ok"
	resultError = "error"
)

// UserRepository хранилище пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	SetRole(ctx context.Context, id, role string) error
	SetBan(ctx context.Context, id string, banned bool, reason string, expires *time.Time) error
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error)
}

// SessionRepository хранилище сессий.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	ListSessionsByTokens(ctx context.Context, tokens []string) ([]*models.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]*models.Session, error)
	UpdateSessionExpiry(ctx context.Context, token string, expiresAt, updatedAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID string) ([]string, error)
}

// SessionCache кеш снимков сессий. Может отсутствовать.
type SessionCache interface {
	GetSession(ctx context.Context, token string) (*models.SessionWithUser, bool, error)
	SetSession(ctx context.Context, snapshot *models.SessionWithUser) error
	InvalidateSessions(ctx context.Context, tokens ...string) error
}

// Metrics счетчики слоя аутентификации.
type Metrics interface {
	SignUp(result string)
	SignIn(result string)
	SessionLookup(source string)
}

type noopMetrics struct{}

func (noopMetrics) SignUp(string)        {}
func (noopMetrics) SignIn(string)        {}
func (noopMetrics) SessionLookup(string) {}

// RequestMeta сведения о клиенте, сохраняемые в сессии.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// SignUpInput данные регистрации. Fields содержит дополнительные поля профиля,
// необъявленные ключи отбрасываются.
type SignUpInput struct {
	Name        string
	Email       string
	Password    string
	Image       string
	CallbackURL string
	Fields      map[string]string
}

// AuthService исполняет конфигурацию аутентификации.
type AuthService struct {
	opts     *authconfig.Options
	users    UserRepository
	sessions SessionRepository
	cache    SessionCache
	tokens   jwt.Maker
	metrics  Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewAuthService создает сервис. cache и metrics могут быть nil.
func NewAuthService(
	opts *authconfig.Options,
	users UserRepository,
	sessions SessionRepository,
	cache SessionCache,
	tokens jwt.Maker,
	metrics Metrics,
	log *slog.Logger,
) *AuthService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &AuthService{
		opts:     opts,
		users:    users,
		sessions: sessions,
		cache:    cache,
		tokens:   tokens,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Options конфигурация, с которой работает сервис.
func (s *AuthService) Options() *authconfig.Options {
	return s.opts
}

// SignUpEmail регистрирует пользователя по email и паролю, отправляет письмо
// подтверждения и, если вход без подтверждения разрешен, открывает сессию.
// Возвращаемая сессия nil, когда сессия не создается.
func (s *AuthService) SignUpEmail(ctx context.Context, in SignUpInput, meta RequestMeta) (*models.User, *models.Session, error) {
	const op = "services.auth.SignUpEmail"
	log := s.log.With(slog.String("op", op))

	user, session, err := s.signUp(ctx, in, meta, log)
	if err != nil {
		s.metrics.SignUp(resultError)
		return user, nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.SignUp(resultOK)
	return user, session, nil
}

func (s *AuthService) signUp(ctx context.Context, in SignUpInput, meta RequestMeta, log *slog.Logger) (*models.User, *models.Session, error) {
	if !s.opts.EmailAndPassword.Enabled {
		return nil, nil, ErrDisabled
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	if err = password.CheckLength(in.Password); err != nil {
		return nil, nil, err
	}

	_, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, nil, ErrUserExists
	case !errors.Is(err, storage.ErrNotFound):
		return nil, nil, err
	}

	hash, err := password.GetHash(in.Password)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Image:        in.Image,
		PasswordHash: hash,
		Role:         s.opts.DefaultRole(),
		Profile:      s.opts.ProfileFrom(in.Fields),
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, nil, ErrUserExists
	}
	if err != nil {
		return nil, nil, err
	}
	log.Info("user registered", slog.String("user_id", user.ID))

	if s.opts.EmailVerification.SendOnSignUp || s.opts.EmailAndPassword.RequireEmailVerification {
		if err = s.sendVerification(ctx, *user, in.CallbackURL, log); err != nil {
			return user, nil, err
		}
	}

	if s.opts.EmailAndPassword.RequireEmailVerification || !s.opts.EmailAndPassword.AutoSignIn {
		return user, nil, nil
	}
	session, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return user, nil, err
	}
	return user, session, nil
}

// SignInEmail проверяет email и пароль и открывает новую сессию.
func (s *AuthService) SignInEmail(ctx context.Context, email, rawPassword string, meta RequestMeta) (*models.User, *models.Session, error) {
	const op = "services.auth.SignInEmail"

	user, session, err := s.signIn(ctx, email, rawPassword, meta)
	if err != nil {
		s.metrics.SignIn(resultError)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.SignIn(resultOK)
	return user, session, nil
}

func (s *AuthService) signIn(ctx context.Context, email, rawPassword string, meta RequestMeta) (*models.User, *models.Session, error) {
	if !s.opts.EmailAndPassword.Enabled {
		return nil, nil, ErrDisabled
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		// хешируем впустую, чтобы время ответа не выдавало наличие email
		_, _ = password.GetHash(rawPassword)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.IsBanned(s.now()) {
		return nil, nil, ErrUserBanned
	}
	if s.opts.EmailAndPassword.RequireEmailVerification && !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	session, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignOut удаляет сессию. Неизвестный токен не считается ошибкой.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	const op = "services.auth.SignOut"

	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, token)
	return nil
}

func (s *AuthService) invalidate(ctx context.Context, tokens ...string) {
	if s.cache == nil || len(tokens) == 0 {
		return
	}
	if err := s.cache.InvalidateSessions(ctx, tokens...); err != nil {
		s.log.Warn("failed to invalidate session cache", sl.Err(err))
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// IsQueued сообщает, что письмо не ушло сразу, но поставлено в очередь.
func IsQueued(err error) bool {
	return errors.Is(err, sender.ErrQueuedForRetry)
}
