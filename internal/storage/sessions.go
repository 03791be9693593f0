package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pharm-courses/auth-service/internal/models"
)

const sessionColumns = `id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession сохраняет сессию.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) error {
	const op = "storage.CreateSession"

	_, err := s.pool.Exec(ctx, `INSERT INTO sessions (`+sessionColumns+`)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.Token, session.UserID, session.ExpiresAt, session.IPAddress, session.UserAgent,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// GetSessionByToken возвращает сессию по токену.
func (s *Storage) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "storage.GetSessionByToken"

	session, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token))
	if err != nil {
		return nil, mapError(op, err)
	}
	return session, nil
}

// ListSessionsByTokens возвращает существующие сессии из списка токенов.
func (s *Storage) ListSessionsByTokens(ctx context.Context, tokens []string) ([]*models.Session, error) {
	const op = "storage.ListSessionsByTokens"
	return s.listSessions(ctx, op,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = ANY($1) ORDER BY created_at`, tokens)
}

// ListUserSessions возвращает все сессии пользователя.
func (s *Storage) ListUserSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	const op = "storage.ListUserSessions"
	return s.listSessions(ctx, op,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Storage) listSessions(ctx context.Context, op, query string, arg any) ([]*models.Session, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSessionExpiry продлевает сессию.
func (s *Storage) UpdateSessionExpiry(ctx context.Context, token string, expiresAt, updatedAt time.Time) error {
	const op = "storage.UpdateSessionExpiry"
	return s.execOne(ctx, op,
		`UPDATE sessions SET expires_at = $1, updated_at = $2 WHERE token = $3`, expiresAt, updatedAt, token)
}

// DeleteSession удаляет сессию по токену. Отсутствие сессии не ошибка.
func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	const op = "storage.DeleteSession"
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return mapError(op, err)
	}
	return nil
}

// DeleteUserSessions удаляет все сессии пользователя и возвращает их токены.
func (s *Storage) DeleteUserSessions(ctx context.Context, userID string) ([]string, error) {
	const op = "storage.DeleteUserSessions"

	rows, err := s.pool.Query(ctx, `DELETE FROM sessions WHERE user_id = $1 RETURNING token`, userID)
	if err != nil {
		return nil, mapError(op, err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tokens, nil
}

// DeleteExpiredSessions удаляет истекшие сессии и возвращает их число.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredSessions"
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(op, err)
	}
	return tag.RowsAffected(), nil
}
