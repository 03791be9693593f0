package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// Exchange обменник писем сервиса аутентификации.
	Exchange = "auth.mail"
	// VerificationQueue очередь повторной отправки писем подтверждения.
	VerificationQueue = "mail.verification"
	// VerificationRoutingKey ключ маршрутизации писем подтверждения.
	VerificationRoutingKey = "verification"
	// DelayQueue очередь ожидания. Сообщения лежат в ней до истечения
	// Expiration и возвращаются в VerificationQueue через dead-letter.
	DelayQueue = "mail.verification.delay"
	// DelayRoutingKey ключ маршрутизации очереди ожидания.
	DelayRoutingKey = "verification.delay"
)

// SetupChannel открывает канал и объявляет обменник и очередь писем подтверждения.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		VerificationQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, VerificationQueue, err)
	}
	err = ch.QueueBind(VerificationQueue, VerificationRoutingKey, Exchange, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, VerificationQueue, err)
	}
	_, err = ch.QueueDeclare(
		DelayQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    Exchange,
			"x-dead-letter-routing-key": VerificationRoutingKey,
		},
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, DelayQueue, err)
	}
	err = ch.QueueBind(DelayQueue, DelayRoutingKey, Exchange, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, DelayQueue, err)
	}
	return ch, nil
}
