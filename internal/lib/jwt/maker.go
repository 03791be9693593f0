// Package jwt реализует подписанные токены сервиса аутентификации:
// токены подтверждения email, подписанные значения cookie сессии
// и снимки сессии для cookie cache.
//
// Все токены подписываются HS256 секретом BETTER_AUTH_SECRET.
package jwt

import (
	"errors"
	"time"

	"github.com/pharm-courses/auth-service/internal/models"
)

// ErrInvalidToken токен не прошел проверку подписи, срока или назначения.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает интерфейс для выпуска и проверки токенов.
type Maker interface {
	// GenerateVerificationToken выпускает токен подтверждения email.
	GenerateVerificationToken(email string) (string, error)
	// ParseVerificationToken проверяет токен подтверждения и возвращает claims.
	ParseVerificationToken(tokenStr string) (*VerificationClaims, error)
	// SignSessionToken подписывает токен сессии для записи в cookie.
	SignSessionToken(sessionToken string, expiresAt time.Time) (string, error)
	// ParseSessionCookie проверяет подпись cookie и возвращает токен сессии.
	ParseSessionCookie(value string) (string, error)
	// SignSessionData подписывает снимок сессии для cookie cache.
	SignSessionData(snapshot *models.SessionWithUser, maxAge time.Duration) (string, error)
	// ParseSessionData проверяет снимок сессии из cookie cache.
	ParseSessionData(value string) (*models.SessionWithUser, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена подтверждения.
type MakerImpl struct {
	secretKey       string        // Секретный ключ для подписи токенов.
	verificationTTL time.Duration // Время жизни токена подтверждения.
	now             func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, verificationTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:       secretKey,
		verificationTTL: verificationTTL,
		now:             time.Now,
	}
}
