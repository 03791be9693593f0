// Package storage реализует адаптер PostgreSQL для пользователей и сессий
// сервиса аутентификации поверх общего пула соединений pgxpool.
package storage

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
)

const uniqueViolation = "23505"

// Storage инкапсулирует пул соединений с PostgreSQL.
// Пул создается один раз при старте и разделяется всеми запросами.
type Storage struct {
	pool *pgxpool.Pool
}

// New создает пул соединений и проверяет доступность БД.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	const op = "storage.New"

	cfg, err := ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool}, nil
}

// ParseConfig разбирает строку подключения. Если соединение идет по TLS,
// сертификат сервера не проверяется.
func ParseConfig(connectionString string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}
	relaxTLS(cfg.ConnConfig.TLSConfig)
	for _, fb := range cfg.ConnConfig.Fallbacks {
		relaxTLS(fb.TLSConfig)
	}
	return cfg, nil
}

func relaxTLS(c *tls.Config) {
	if c == nil {
		return
	}
	c.InsecureSkipVerify = true
	c.VerifyPeerCertificate = nil
}

// DB возвращает *sql.DB поверх того же пула, нужен для golang-migrate.
// Закрытие *sql.DB не закрывает пул.
func (s *Storage) DB() *sql.DB {
	return stdlib.OpenDBFromPool(s.pool)
}

// Ping проверяет доступность БД.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.pool.Close()
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
