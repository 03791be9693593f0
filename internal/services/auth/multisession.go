package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pharm-courses/auth-service/internal/models"
)

func (s *AuthService) maximumSessions() (int, error) {
	ms, ok := s.opts.MultiSession()
	if !ok {
		return 0, ErrDisabled
	}
	return ms.MaximumSessions, nil
}

// CanAddDeviceSession сообщает, можно ли запомнить в браузере еще одну сессию,
// если в нем уже есть existing сессий.
func (s *AuthService) CanAddDeviceSession(existing int) bool {
	limit, err := s.maximumSessions()
	if err != nil {
		return false
	}
	return existing < limit
}

// ListDeviceSessions возвращает действующие сессии браузера по их токенам.
// Истекшие сессии и сессии заблокированных пользователей пропускаются.
func (s *AuthService) ListDeviceSessions(ctx context.Context, tokens []string) ([]*models.SessionWithUser, error) {
	const op = "services.auth.ListDeviceSessions"

	limit, err := s.maximumSessions()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tokens = compactTokens(tokens)
	if len(tokens) == 0 {
		return nil, nil
	}

	sessions, err := s.sessions.ListSessionsByTokens(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	result := make([]*models.SessionWithUser, 0, len(sessions))
	seen := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if session.Expired(now) {
			continue
		}
		// одна запись на пользователя
		if _, dup := seen[session.UserID]; dup {
			continue
		}
		user, err := s.users.GetUser(ctx, session.UserID)
		if err != nil {
			continue
		}
		if user.IsBanned(now) {
			continue
		}
		seen[session.UserID] = struct{}{}
		result = append(result, &models.SessionWithUser{Session: *session, User: *user})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// SetActiveSession делает активной одну из сессий браузера.
func (s *AuthService) SetActiveSession(ctx context.Context, tokens []string, token string) (*models.SessionWithUser, error) {
	const op = "services.auth.SetActiveSession"

	if _, err := s.maximumSessions(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !slices.Contains(tokens, token) {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	snapshot, _, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snapshot, nil
}

// RevokeDeviceSession закрывает одну из сессий браузера. Если закрыта активная
// сессия, возвращает следующую действующую, иначе nil.
func (s *AuthService) RevokeDeviceSession(ctx context.Context, tokens []string, token, activeToken string) (*models.SessionWithUser, error) {
	const op = "services.auth.RevokeDeviceSession"

	if _, err := s.maximumSessions(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !slices.Contains(tokens, token) {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err := s.SignOut(ctx, token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if token != activeToken {
		return nil, nil
	}

	rest := slices.DeleteFunc(slices.Clone(tokens), func(t string) bool { return t == token })
	for _, t := range rest {
		snapshot, _, err := s.GetSession(ctx, t)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrUserBanned) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil, nil
}

func compactTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
