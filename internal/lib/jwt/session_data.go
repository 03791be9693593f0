package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pharm-courses/auth-service/internal/models"
)

const audienceSessionData = "session-data"

// SessionDataClaims снимок сессии для cookie cache.
type SessionDataClaims struct {
	Snapshot models.SessionWithUser `json:"snapshot"`
	jwt.RegisteredClaims
}

// SignSessionData подписывает снимок сессии, действительный maxAge.
func (j *MakerImpl) SignSessionData(snapshot *models.SessionWithUser, maxAge time.Duration) (string, error) {
	const op = "jwt.SignSessionData"
	now := j.now()
	expiresAt := now.Add(maxAge)
	if snapshot.Session.ExpiresAt.Before(expiresAt) {
		expiresAt = snapshot.Session.ExpiresAt
	}
	claims := SessionDataClaims{
		Snapshot: *snapshot,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceSessionData},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseSessionData проверяет подпись и срок снимка сессии.
func (j *MakerImpl) ParseSessionData(value string) (*models.SessionWithUser, error) {
	const op = "jwt.ParseSessionData"
	claims := &SessionDataClaims{}
	if err := j.parse(value, claims, audienceSessionData); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Snapshot.Session.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return &claims.Snapshot, nil
}
