package middlewarectx

import (
	"context"

	"github.com/pharm-courses/auth-service/internal/models"
)

// SessionService поиск действующей сессии по токену.
type SessionService interface {
	GetSession(ctx context.Context, token string) (*models.SessionWithUser, bool, error)
	SessionFromDataCookie(value, token string) (*models.SessionWithUser, bool)
}
