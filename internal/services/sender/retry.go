package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/models"
)

// MaxAttempts сколько раз письмо пытаются отправить из очереди.
const MaxAttempts = 5

// ErrQueuedForRetry письмо не отправлено сразу, но поставлено в очередь.
var ErrQueuedForRetry = errors.New("verification email queued for retry")

// Publisher ставит письмо в очередь повторной отправки.
type Publisher interface {
	PublishVerificationMail(ctx context.Context, mail models.VerificationMail) error
}

// Sender отправка одного письма подтверждения.
type Sender interface {
	SendVerificationEmail(ctx context.Context, user models.User, url string) error
}

// Recorder учитывает исходы отправки.
type Recorder interface {
	VerificationEmail(result string)
}

// Исходы отправки для метрик.
const (
	ResultSent    = "sent"
	ResultQueued  = "queued"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

type noopRecorder struct{}

func (noopRecorder) VerificationEmail(string) {}

// RetryingSender отправляет письмо синхронно, а при ошибке ставит его
// в очередь и сообщает ErrQueuedForRetry.
type RetryingSender struct {
	sender    Sender
	publisher Publisher
	metrics   Recorder
	log       *slog.Logger
}

// NewRetryingSender создает RetryingSender. publisher может быть nil,
// тогда ошибки отправки возвращаются как есть.
func NewRetryingSender(sender Sender, publisher Publisher, metrics Recorder, log *slog.Logger) *RetryingSender {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &RetryingSender{
		sender:    sender,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// SendVerificationEmail пытается отправить письмо, при неудаче ставит его в очередь.
func (r *RetryingSender) SendVerificationEmail(ctx context.Context, user models.User, url string) error {
	const op = "sender.RetryingSender.SendVerificationEmail"

	sendErr := r.sender.SendVerificationEmail(ctx, user, url)
	if sendErr == nil {
		r.metrics.VerificationEmail(ResultSent)
		return nil
	}
	if r.publisher == nil {
		r.metrics.VerificationEmail(ResultFailed)
		return sendErr
	}

	mail := models.VerificationMail{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		URL:      url,
		Attempts: 1,
	}
	if err := r.publisher.PublishVerificationMail(context.WithoutCancel(ctx), mail); err != nil {
		r.log.Error("failed to queue verification email", sl.Op(op), sl.Err(err))
		r.metrics.VerificationEmail(ResultFailed)
		return errors.Join(sendErr, fmt.Errorf("%s: %w", op, err))
	}

	r.log.Warn("verification email queued for retry", sl.Op(op), slog.String("user_id", user.ID), sl.Err(sendErr))
	r.metrics.VerificationEmail(ResultQueued)
	return fmt.Errorf("%w: %w", ErrQueuedForRetry, sendErr)
}

// HandleQueued обрабатывает сообщение из очереди повторной отправки.
// Неудачная попытка публикуется заново с увеличенным счетчиком, и Publisher
// откладывает ее тем дольше, чем больше попыток. После MaxAttempts письмо
// отбрасывается. Ошибка возвращается только если
// сообщение нужно вернуть в очередь.
func (r *RetryingSender) HandleQueued(ctx context.Context, body []byte) error {
	const op = "sender.RetryingSender.HandleQueued"
	log := r.log.With(sl.Op(op))

	var mail models.VerificationMail
	if err := json.Unmarshal(body, &mail); err != nil {
		log.Error("failed to unmarshal message body, dropping", sl.Err(err))
		r.metrics.VerificationEmail(ResultDropped)
		return nil
	}

	user := models.User{ID: mail.UserID, Email: mail.Email, Name: mail.Name}
	err := r.sender.SendVerificationEmail(ctx, user, mail.URL)
	if err == nil {
		r.metrics.VerificationEmail(ResultSent)
		return nil
	}

	if mail.Attempts+1 >= MaxAttempts || r.publisher == nil {
		log.Error("verification email dropped after retries",
			slog.String("user_id", mail.UserID), slog.Int("attempts", mail.Attempts+1), sl.Err(err))
		r.metrics.VerificationEmail(ResultDropped)
		return nil
	}

	mail.Attempts++
	if pubErr := r.publisher.PublishVerificationMail(ctx, mail); pubErr != nil {
		return fmt.Errorf("%s: %w", op, pubErr)
	}
	r.metrics.VerificationEmail(ResultQueued)
	return nil
}
