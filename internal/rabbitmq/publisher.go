package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/pharm-courses/auth-service/internal/models"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// MaxRetryDelay верхняя граница паузы перед повторной отправкой.
const MaxRetryDelay = time.Hour

// Publisher публикует письма подтверждения в очередь повторной отправки.
// amqp.Channel не допускает конкурентную публикацию, поэтому вызовы сериализуются.
type Publisher struct {
	mu        sync.Mutex
	ch        Channel
	baseDelay time.Duration
}

// NewPublisher создает Publisher поверх канала. Письмо с attempts попытками
// ждет в DelayQueue baseDelay * 2^(attempts-1), но не больше MaxRetryDelay.
// При baseDelay <= 0 письма идут сразу в VerificationQueue.
func NewPublisher(ch Channel, baseDelay time.Duration) *Publisher {
	return &Publisher{ch: ch, baseDelay: baseDelay}
}

// RetryDelay пауза перед следующей попыткой после attempts неудачных.
func RetryDelay(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return min(delay, MaxRetryDelay)
}

// PublishVerificationMail ставит письмо в очередь ожидания.
func (p *Publisher) PublishVerificationMail(ctx context.Context, mail models.VerificationMail) error {
	const op = "rabbitmq.PublishVerificationMail"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	delay := RetryDelay(p.baseDelay, mail.Attempts)
	if delay == 0 {
		return PublishMessage(p, Exchange, VerificationRoutingKey, mail, 0)
	}
	return PublishMessage(p, Exchange, DelayRoutingKey, mail, delay)
}

// Publish реализует Channel с блокировкой.
func (p *Publisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(exchange, key, mandatory, immediate, msg)
}

// PublishMessage публикует сообщение в RabbitMQ в виде JSON.
// Ненулевой ttl задает Expiration сообщения.
func PublishMessage(ch Channel, exchange string, routingkey string, message any, ttl time.Duration) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
	if ttl > 0 {
		msg.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}

	err = ch.Publish(exchange, routingkey, false, false, msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
