// Package mailretry собирает обработчик очереди повторной отправки писем
// подтверждения.
package mailretry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/lib/smtp"
	"github.com/pharm-courses/auth-service/internal/metrics"
	"github.com/pharm-courses/auth-service/internal/rabbitmq"
	senderservice "github.com/pharm-courses/auth-service/internal/services/sender"
)

// ErrNoQueue возвращается, если RABBITMQ_URL не задан.
var ErrNoQueue = errors.New("RABBITMQ_URL is not set")

// App потребитель очереди mail.verification.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	sender  *senderservice.RetryingSender
	workers int
	logger  *slog.Logger
}

// New подключается к RabbitMQ и собирает отправителя писем.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.mailretry.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoQueue)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), logger)
	direct := senderservice.NewSenderService(mailer, cfg.MailFrom, cfg.MailSendTimeout, logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	return &App{
		conn:    conn,
		ch:      ch,
		sender:  senderservice.NewRetryingSender(direct, rabbitmq.NewPublisher(ch, cfg.MailRetryDelay), m, logger),
		workers: cfg.MailRetryWorkers,
		logger:  logger,
	}, nil
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.VerificationQueue, a.workers, a.logger, a.sender.HandleQueued)
	if err != nil {
		a.logger.Error("failed to start verification queue consumer", sl.Err(err))
		closeResources(a.ch, a.conn, a.logger)
		return err
	}
	a.logger.Info("mail retry consumer started",
		slog.String("queue", rabbitmq.VerificationQueue), slog.Int("workers", a.workers))

	<-ctx.Done()
	a.logger.Info("mail retry service shutting down gracefully")
	closeResources(a.ch, a.conn, a.logger)
	return nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}
