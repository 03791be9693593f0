package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pharm-courses/auth-service/internal/models"
)

const userColumns = `id, name, email, email_verified, image, password_hash, role,
	banned, ban_reason, ban_expires, phone, region_city, education, specialty,
	workplace, job_title, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.PasswordHash, &u.Role,
		&u.Banned, &u.BanReason, &u.BanExpires, &u.Phone, &u.RegionCity, &u.Education, &u.Specialty,
		&u.Workplace, &u.JobTitle, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с заполненным ID.
// Email сравнивается без учета регистра.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (name, email, email_verified, image, password_hash, role,
			      phone, region_city, education, specialty, workplace, job_title)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + userColumns
	created, err := scanUser(s.pool.QueryRow(ctx, query,
		user.Name, strings.ToLower(user.Email), user.EmailVerified, user.Image, user.PasswordHash, user.Role,
		user.Phone, user.RegionCity, user.Education, user.Specialty, user.Workplace, user.JobTitle))
	if err != nil {
		return nil, mapError(op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"

	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// SetEmailVerified отмечает email пользователя подтвержденным.
func (s *Storage) SetEmailVerified(ctx context.Context, id string) error {
	const op = "storage.SetEmailVerified"
	return s.execOne(ctx, op,
		`UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`, id)
}

// SetRole меняет роль пользователя.
func (s *Storage) SetRole(ctx context.Context, id, role string) error {
	const op = "storage.SetRole"
	return s.execOne(ctx, op,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, role, id)
}

// SetBan блокирует или разблокирует пользователя.
func (s *Storage) SetBan(ctx context.Context, id string, banned bool, reason string, expires *time.Time) error {
	const op = "storage.SetBan"
	return s.execOne(ctx, op,
		`UPDATE users SET banned = $1, ban_reason = $2, ban_expires = $3, updated_at = now() WHERE id = $4`,
		banned, reason, expires, id)
}

// ListUsers возвращает страницу пользователей и их общее число.
// search фильтрует по подстроке email или имени.
func (s *Storage) ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error) {
	const op = "storage.ListUsers"

	pattern := "%" + search + "%"
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE email ILIKE $1 OR name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, mapError(op, err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users
			  WHERE email ILIKE $1 OR name ILIKE $1
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, mapError(op, err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
