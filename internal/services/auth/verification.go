package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
	"github.com/pharm-courses/auth-service/internal/storage"
)

func (s *AuthService) sendVerification(ctx context.Context, user models.User, callbackURL string, log *slog.Logger) error {
	emailSender := s.opts.EmailVerification.Sender
	if emailSender == nil {
		return ErrDisabled
	}
	token, err := s.tokens.GenerateVerificationToken(user.Email)
	if err != nil {
		return err
	}
	url := s.opts.VerificationURL(token, callbackURL)

	err = emailSender.SendVerificationEmail(ctx, user, url)
	switch {
	case err == nil:
		return nil
	case IsQueued(err):
		log.Warn("verification email queued for retry", slog.String("user_id", user.ID), sl.Err(err))
		return nil
	default:
		log.Error("failed to send verification email", slog.String("user_id", user.ID), sl.Err(err))
		return fmt.Errorf("%w: %w", ErrVerificationEmail, err)
	}
}

// SendVerificationEmail повторно отправляет письмо подтверждения.
// Для неизвестного или уже подтвержденного email ничего не делает,
// чтобы ответ не раскрывал наличие аккаунта.
func (s *AuthService) SendVerificationEmail(ctx context.Context, email, callbackURL string) error {
	const op = "services.auth.SendVerificationEmail"
	log := s.log.With(slog.String("op", op))

	email, err := normalizeEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.EmailVerified {
		return nil
	}
	if err = s.sendVerification(ctx, *user, callbackURL, log); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// VerifyEmail проверяет токен из ссылки и отмечает email подтвержденным.
// Если включен AutoSignInAfterVerification, возвращает новую сессию.
func (s *AuthService) VerifyEmail(ctx context.Context, token string, meta RequestMeta) (*models.User, *models.Session, error) {
	const op = "services.auth.VerifyEmail"

	claims, err := s.tokens.ParseVerificationToken(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.EmailVerified {
		if err = s.users.SetEmailVerified(ctx, user.ID); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		user.EmailVerified = true
		s.log.Info("email verified", slog.String("op", op), slog.String("user_id", user.ID))
	}

	if !s.opts.EmailVerification.AutoSignInAfterVerification {
		return user, nil, nil
	}
	session, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, session, nil
}
