// Package services содержит периодическую очистку истекших сессий.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

// SessionRepository удаление истекших сессий.
type SessionRepository interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SweeperService удаляет из БД сессии, срок которых истек.
type SweeperService struct {
	repo SessionRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSweeperService создает новый экземпляр SweeperService.
func NewSweeperService(repo SessionRepository, log *slog.Logger) *SweeperService {
	return &SweeperService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Run выполняет очистку сразу и затем раз в interval, пока не отменен ctx.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	_, _ = s.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep удаляет истекшие сессии и возвращает их количество.
func (s *SweeperService) Sweep(ctx context.Context) (int64, error) {
	const op = "sweeper.Sweep"

	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		s.log.Error("failed to delete expired sessions", sl.Op(op), sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.log.Info("expired sessions deleted", sl.Op(op), slog.Int64("count", n))
	}
	return n, nil
}
