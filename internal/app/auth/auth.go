// Package auth собирает сервис аутентификации: хранилище, кеш сессий,
// отправку писем и HTTP-сервер.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/pharm-courses/auth-service/internal/authconfig"
	"github.com/pharm-courses/auth-service/internal/cache"
	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/http/cookies"
	"github.com/pharm-courses/auth-service/internal/lib/jwt"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/lib/smtp"
	"github.com/pharm-courses/auth-service/internal/metrics"
	"github.com/pharm-courses/auth-service/internal/migrations"
	"github.com/pharm-courses/auth-service/internal/rabbitmq"
	authservices "github.com/pharm-courses/auth-service/internal/services/auth"
	senderservice "github.com/pharm-courses/auth-service/internal/services/sender"
	sweeperservice "github.com/pharm-courses/auth-service/internal/services/sweeper"
	"github.com/pharm-courses/auth-service/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App владеет всеми ресурсами сервиса. Создается один раз при старте.
type App struct {
	server        *http.Server
	logger        *slog.Logger
	db            *storage.Storage
	cache         *cache.Cache
	conn          *amqp.Connection
	ch            *amqp.Channel
	sweeper       *sweeperservice.SweeperService
	sweepInterval time.Duration
}

// New подключает зависимости, применяет миграции и собирает HTTP-сервер.
// При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	a := &App{logger: logger, sweepInterval: cfg.SweepInterval}

	db, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.db = db

	if err = migrations.Run(db.DB(), cfg.MigrationsPath); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sessionCache authservices.SessionCache
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.cache = cacheRedis
		sessionCache = cache.NewSessionCache(cacheRedis, authconfig.CookieCacheMaxAge)
	} else {
		logger.Info("redis address is not set, session cache disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var publisher senderservice.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.conn = conn
		ch, err := rabbitmq.SetupChannel(conn)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ch = ch
		publisher = rabbitmq.NewPublisher(ch, cfg.MailRetryDelay)
	} else {
		logger.Info("rabbitmq url is not set, failed verification emails are not retried")
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), logger)
	direct := senderservice.NewSenderService(mailer, cfg.MailFrom, cfg.MailSendTimeout, logger)
	sender := senderservice.NewRetryingSender(direct, publisher, m, logger)

	opts := authconfig.New(cfg, sender)
	tokens := jwt.NewJWTMaker(opts.Secret, opts.EmailVerification.ExpiresIn)
	svc := authservices.NewAuthService(opts, db, db, sessionCache, tokens, m, logger)
	jar := cookies.New(opts, svc)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, jar, m, db)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	a.sweeper = sweeperservice.NewSweeperService(db, logger)

	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер
// и освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	if a.sweepInterval > 0 {
		go a.sweeper.Run(ctx, a.sweepInterval)
	}

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
