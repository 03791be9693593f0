package cache

import (
	"context"
	"time"

	"github.com/pharm-courses/auth-service/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionCache кеш снимков сессий по токену.
type SessionCache struct {
	cache  *Cache
	maxAge time.Duration
}

// NewSessionCache создает кеш с временем жизни записи maxAge.
func NewSessionCache(c *Cache, maxAge time.Duration) *SessionCache {
	return &SessionCache{cache: c, maxAge: maxAge}
}

// SessionKey ключ redis для токена сессии.
func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

// GetSession возвращает снимок сессии, если он есть в кеше.
func (s *SessionCache) GetSession(ctx context.Context, token string) (*models.SessionWithUser, bool, error) {
	var snapshot models.SessionWithUser
	found, err := s.cache.Get(ctx, SessionKey(token), &snapshot)
	if err != nil || !found {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetSession кладет снимок в кеш. Запись не переживает саму сессию.
func (s *SessionCache) SetSession(ctx context.Context, snapshot *models.SessionWithUser) error {
	ttl := s.maxAge
	if left := time.Until(snapshot.Session.ExpiresAt); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, SessionKey(snapshot.Session.Token), snapshot, ttl)
}

// InvalidateSessions удаляет снимки указанных сессий.
func (s *SessionCache) InvalidateSessions(ctx context.Context, tokens ...string) error {
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, SessionKey(t))
	}
	return s.cache.Invalidate(ctx, keys...)
}
