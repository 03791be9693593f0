// Package config предоставляет структуры и функции для загрузки конфигурации
// сервиса аутентификации из переменных окружения (и, опционально, из YAML-файла).
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// DefaultBaseURL используется, если BETTER_AUTH_URL не задан.
	DefaultBaseURL = "http://localhost:7777"
	// PlaceholderSecret подставляется, если BETTER_AUTH_SECRET не задан.
	// Допустим только в окружениях разработки, см. Validate.
	PlaceholderSecret = "your-secret-key-change-this"
	// DefaultMailFrom адрес отправителя писем подтверждения.
	DefaultMailFrom = "onboarding@resend.dev"
)

var (
	// ErrNoDatabaseURL возвращается, если строка подключения к БД пуста.
	ErrNoDatabaseURL = errors.New("DATABASE_URL is not set")
	// ErrInsecureSecret возвращается вне окружения разработки, если секрет не задан.
	ErrInsecureSecret = errors.New("BETTER_AUTH_SECRET is not set or uses the placeholder value")
	// ErrNoTrustedOrigins возвращается вне окружения разработки, если TRUSTED_ORIGINS пуст.
	ErrNoTrustedOrigins = errors.New("TRUSTED_ORIGINS is not set")
)

// Config общая структура для хранения настроек
type Config struct {
	Env               string        `yaml:"env" env:"ENV" env-default:"local"`
	DatabaseURL       string        `yaml:"database_url" env:"DATABASE_URL"`
	BaseURL           string        `yaml:"base_url" env:"BETTER_AUTH_URL"`
	TrustedOriginsRaw string        `yaml:"trusted_origins" env:"TRUSTED_ORIGINS"`
	Secret            string        `yaml:"secret" env:"BETTER_AUTH_SECRET"`
	MigrationsPath    string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	SweepInterval     time.Duration `yaml:"session_sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1h"`
	HTTPServer        `yaml:"http_server"`
	RedisConnection   `yaml:"redis_connection"`
	SMTP              `yaml:"smtp"`
	RabbitMQ          `yaml:"rabbitmq"`
}

// RabbitMQ настройки очереди повторной отправки писем.
// Пустой URL отключает очередь.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
	MailRetryWorkers   int           `yaml:"mail_retry_workers" env:"MAIL_RETRY_WORKERS" env-default:"4"`
	MailRetryDelay     time.Duration `yaml:"mail_retry_delay" env:"MAIL_RETRY_DELAY" env-default:"30s"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":7777"`
	TimeoutHTTP time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кеш сессий.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// SMTP структура для настройки почтового транспорта
type SMTP struct {
	SMTPHost        string        `yaml:"host" env:"SMTP_HOST"`
	SMTPPort        string        `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser        string        `yaml:"user" env:"SMTP_USER"`
	SMTPPass        string        `yaml:"pass" env:"SMTP_PASS"`
	MailFrom        string        `yaml:"mail_from" env:"MAIL_FROM"`
	MailSendTimeout time.Duration `yaml:"mail_send_timeout" env:"MAIL_SEND_TIMEOUT" env-default:"15s"`
}

// Load читает конфиг из файла CONFIG_PATH (если задан) и переменных окружения.
func Load() (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.applyFallbacks()
	return &cfg, nil
}

// MustLoad загружает и проверяет конфиг, завершая процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return cfg
}

// applyFallbacks подставляет значения по умолчанию и для пустых переменных,
// а не только для отсутствующих.
func (c *Config) applyFallbacks() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Secret == "" {
		c.Secret = PlaceholderSecret
	}
	if c.MailFrom == "" {
		c.MailFrom = DefaultMailFrom
	}
}

// TrustedOrigins разбивает TRUSTED_ORIGINS по запятой, сохраняя порядок.
// Незаданная переменная дает список из одной пустой строки.
func (c *Config) TrustedOrigins() []string {
	return strings.Split(c.TrustedOriginsRaw, ",")
}

// IsDevelopment сообщает, запущен ли сервис в окружении разработки.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "local", "dev", "development", "test":
		return true
	}
	return false
}

// Warnings перечисляет небезопасные значения по умолчанию, которые допустимы
// только при разработке.
func (c *Config) Warnings() []string {
	var warns []string
	if c.Secret == PlaceholderSecret {
		warns = append(warns, ErrInsecureSecret.Error())
	}
	if strings.TrimSpace(c.TrustedOriginsRaw) == "" {
		warns = append(warns, ErrNoTrustedOrigins.Error())
	}
	return warns
}

// Validate проверяет конфиг. Вне окружения разработки небезопасные значения
// по умолчанию приводят к ошибке старта.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrNoDatabaseURL
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.Secret == PlaceholderSecret {
		return ErrInsecureSecret
	}
	if strings.TrimSpace(c.TrustedOriginsRaw) == "" {
		return ErrNoTrustedOrigins
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"BaseURL: %s\n"+
			"TrustedOrigins: %q\n"+
			"Secret: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"SMTP:\n"+
			"  Host: %s:%s\n"+
			"  From: %s\n"+
			"  SendTimeout: %s\n"+
			"RabbitMQ: %s\n",
		c.Env,
		c.BaseURL,
		c.TrustedOrigins(),
		redact(c.Secret),
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.SMTPHost,
		c.SMTPPort,
		c.MailFrom,
		c.MailSendTimeout,
		redactURL(c.RabbitMQURL),
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

// redactURL скрывает пароль в строке подключения.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
