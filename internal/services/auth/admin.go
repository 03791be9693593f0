package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pharm-courses/auth-service/internal/models"
	"github.com/pharm-courses/auth-service/internal/storage"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ListUsersQuery параметры выборки пользователей.
type ListUsersQuery struct {
	Search string
	Limit  int
	Offset int
}

// UserPage страница пользователей.
type UserPage struct {
	Users  []*models.User `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// requireAdmin проверяет, что плагин admin подключен и у вызывающего есть доступ.
func (s *AuthService) requireAdmin(actor *models.User) error {
	admin, ok := s.opts.Admin()
	if !ok {
		return ErrDisabled
	}
	if actor == nil || !admin.IsAdmin(actor.Role) {
		return ErrForbidden
	}
	return nil
}

// ListUsers возвращает страницу пользователей.
func (s *AuthService) ListUsers(ctx context.Context, actor *models.User, q ListUsersQuery) (*UserPage, error) {
	const op = "services.auth.ListUsers"

	if err := s.requireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	q.Limit = min(q.Limit, maxListLimit)
	q.Offset = max(q.Offset, 0)

	users, total, err := s.users.ListUsers(ctx, q.Search, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &UserPage{Users: users, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// SetRole меняет роль пользователя.
func (s *AuthService) SetRole(ctx context.Context, actor *models.User, userID, role string) error {
	const op = "services.auth.SetRole"

	if err := s.requireAdmin(actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%s: %w %q", op, ErrUnknownRole, role)
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("%s: %w", op, userErr(err))
	}
	s.log.Info("role changed", slog.String("op", op),
		slog.String("user_id", userID), slog.String("role", role), slog.String("by", actor.ID))
	return nil
}

// BanUser блокирует пользователя и закрывает все его сессии.
// Нулевой duration означает бессрочную блокировку.
func (s *AuthService) BanUser(ctx context.Context, actor *models.User, userID, reason string, duration time.Duration) error {
	const op = "services.auth.BanUser"

	if err := s.requireAdmin(actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if actor.ID == userID {
		return fmt.Errorf("%s: %w: cannot ban yourself", op, ErrForbidden)
	}
	var expires *time.Time
	if duration > 0 {
		t := s.now().UTC().Add(duration)
		expires = &t
	}
	if err := s.users.SetBan(ctx, userID, true, reason, expires); err != nil {
		return fmt.Errorf("%s: %w", op, userErr(err))
	}
	if _, err := s.revokeUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user banned", slog.String("op", op), slog.String("user_id", userID), slog.String("by", actor.ID))
	return nil
}

// UnbanUser снимает блокировку.
func (s *AuthService) UnbanUser(ctx context.Context, actor *models.User, userID string) error {
	const op = "services.auth.UnbanUser"

	if err := s.requireAdmin(actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetBan(ctx, userID, false, "", nil); err != nil {
		return fmt.Errorf("%s: %w", op, userErr(err))
	}
	return nil
}

// RevokeUserSessions закрывает все сессии пользователя и возвращает их число.
func (s *AuthService) RevokeUserSessions(ctx context.Context, actor *models.User, userID string) (int, error) {
	const op = "services.auth.RevokeUserSessions"

	if err := s.requireAdmin(actor); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := s.revokeUserSessions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListUserSessions возвращает действующие сессии пользователя.
func (s *AuthService) ListUserSessions(ctx context.Context, actor *models.User, userID string) ([]*models.Session, error) {
	const op = "services.auth.ListUserSessions"

	if err := s.requireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sessions, err := s.sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	active := make([]*models.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.Expired(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

func (s *AuthService) revokeUserSessions(ctx context.Context, userID string) (int, error) {
	tokens, err := s.sessions.DeleteUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, tokens...)
	return len(tokens), nil
}

func userErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
