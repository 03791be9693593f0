package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	"github.com/pharm-courses/auth-service/internal/storage"
)

// Источники найденной сессии для метрик.
const (
	lookupCache = "cache"
	lookupDB    = "db"
	lookupMiss  = "miss"
)

const sessionTokenBytes = 32

func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *AuthService) createSession(ctx context.Context, userID string, meta RequestMeta) (*models.Session, error) {
	token := uuid.NewString()
	if s.opts.Advanced.GenerateSessionToken {
		var err error
		if token, err = generateSessionToken(); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.opts.Session.ExpiresIn),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession возвращает действующую сессию вместе с пользователем.
// Снимок берется из кеша, если он там есть. При обращении к БД сессия
// продлевается на ExpiresIn, если с последнего продления прошло не меньше UpdateAge.
// refreshed сообщает, что срок сессии изменился и cookie нужно перевыпустить.
func (s *AuthService) GetSession(ctx context.Context, token string) (snapshot *models.SessionWithUser, refreshed bool, err error) {
	const op = "services.auth.GetSession"
	log := s.log.With(slog.String("op", op))

	if token == "" {
		s.metrics.SessionLookup(lookupMiss)
		return nil, false, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	now := s.now()

	if s.cacheEnabled() {
		cached, found, err := s.cache.GetSession(ctx, token)
		if err != nil {
			log.Warn("session cache lookup failed", sl.Err(err))
		}
		if found && !cached.Session.Expired(now) && !cached.User.IsBanned(now) {
			s.metrics.SessionLookup(lookupCache)
			return cached, false, nil
		}
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.SessionLookup(lookupMiss)
		return nil, false, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if session.Expired(now) {
		s.metrics.SessionLookup(lookupMiss)
		if err = s.sessions.DeleteSession(ctx, token); err != nil {
			log.Warn("failed to delete expired session", sl.Err(err))
		}
		return nil, false, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.SessionLookup(lookupMiss)
		return nil, false, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsBanned(now) {
		s.metrics.SessionLookup(lookupMiss)
		return nil, false, fmt.Errorf("%s: %w", op, ErrUserBanned)
	}

	if now.Sub(session.UpdatedAt) >= s.opts.Session.UpdateAge {
		expiresAt := now.UTC().Add(s.opts.Session.ExpiresIn)
		if err = s.sessions.UpdateSessionExpiry(ctx, token, expiresAt, now.UTC()); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		session.ExpiresAt = expiresAt
		session.UpdatedAt = now.UTC()
		refreshed = true
	}

	snapshot = &models.SessionWithUser{Session: *session, User: *user}
	if s.cacheEnabled() {
		if err = s.cache.SetSession(ctx, snapshot); err != nil {
			log.Warn("failed to cache session", sl.Err(err))
		}
	}
	s.metrics.SessionLookup(lookupDB)
	return snapshot, refreshed, nil
}

func (s *AuthService) cacheEnabled() bool {
	return s.cache != nil && s.opts.Session.CookieCache.Enabled
}

// SessionCookieValue подписывает токен сессии для записи в cookie.
func (s *AuthService) SessionCookieValue(session *models.Session) (string, error) {
	const op = "services.auth.SessionCookieValue"
	v, err := s.tokens.SignSessionToken(session.Token, session.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// TokenFromCookie проверяет подпись cookie и возвращает токен сессии.
func (s *AuthService) TokenFromCookie(value string) (string, error) {
	const op = "services.auth.TokenFromCookie"
	token, err := s.tokens.ParseSessionCookie(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	return token, nil
}

// SessionDataCookieValue подписывает снимок сессии для cookie cache.
// Пустая строка означает, что cookie cache выключен.
func (s *AuthService) SessionDataCookieValue(snapshot *models.SessionWithUser) (string, error) {
	const op = "services.auth.SessionDataCookieValue"
	if !s.opts.Session.CookieCache.Enabled {
		return "", nil
	}
	v, err := s.tokens.SignSessionData(snapshot, s.opts.Session.CookieCache.MaxAge)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// SessionFromDataCookie возвращает снимок из cookie cache, если он подписан,
// не старше MaxAge и относится к сессии token.
func (s *AuthService) SessionFromDataCookie(value, token string) (*models.SessionWithUser, bool) {
	if !s.opts.Session.CookieCache.Enabled || value == "" || token == "" {
		return nil, false
	}
	snapshot, err := s.tokens.ParseSessionData(value)
	if err != nil || snapshot.Session.Token != token {
		return nil, false
	}
	now := s.now()
	if snapshot.Session.Expired(now) || snapshot.User.IsBanned(now) {
		return nil, false
	}
	s.metrics.SessionLookup(lookupCache)
	return snapshot, true
}
