package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceVerification = "email-verification"
	audienceSession      = "session"
)

// VerificationClaims данные токена подтверждения email.
type VerificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateVerificationToken создает токен подтверждения для email.
func (j *MakerImpl) GenerateVerificationToken(email string) (string, error) {
	const op = "jwt.GenerateVerificationToken"
	now := j.now()
	claims := VerificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceVerification},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.verificationTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseVerificationToken проверяет подпись, срок и назначение токена.
func (j *MakerImpl) ParseVerificationToken(tokenStr string) (*VerificationClaims, error) {
	const op = "jwt.ParseVerificationToken"
	claims := &VerificationClaims{}
	if err := j.parse(tokenStr, claims, audienceVerification); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}

// SignSessionToken упаковывает токен сессии в подписанное значение cookie.
func (j *MakerImpl) SignSessionToken(sessionToken string, expiresAt time.Time) (string, error) {
	const op = "jwt.SignSessionToken"
	claims := jwt.RegisteredClaims{
		Subject:   sessionToken,
		Audience:  jwt.ClaimStrings{audienceSession},
		IssuedAt:  jwt.NewNumericDate(j.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseSessionCookie возвращает токен сессии из подписанного значения cookie.
func (j *MakerImpl) ParseSessionCookie(value string) (string, error) {
	const op = "jwt.ParseSessionCookie"
	claims := &jwt.RegisteredClaims{}
	if err := j.parse(value, claims, audienceSession); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (j *MakerImpl) parse(tokenStr string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
