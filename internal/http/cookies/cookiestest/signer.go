// Package cookiestest содержит заглушки для тестов HTTP-слоя.
package cookiestest

import (
	"errors"
	"strings"

	"github.com/pharm-courses/auth-service/internal/models"
)

const signedPrefix = "signed:"

// PlainSigner подписывает токен префиксом "signed:" и принимает только такие значения.
type PlainSigner struct{}

// Sign значение cookie для токена.
func Sign(token string) string { return signedPrefix + token }

func (PlainSigner) SessionCookieValue(s *models.Session) (string, error) {
	return Sign(s.Token), nil
}

func (PlainSigner) TokenFromCookie(v string) (string, error) {
	if !strings.HasPrefix(v, signedPrefix) {
		return "", errors.New("bad signature")
	}
	return strings.TrimPrefix(v, signedPrefix), nil
}

func (PlainSigner) SessionDataCookieValue(s *models.SessionWithUser) (string, error) {
	return "data:" + s.Session.Token, nil
}
