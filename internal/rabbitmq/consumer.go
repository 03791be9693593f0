package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди queueName. Обработка идет
// не более чем в workers горутинах и прекращается при отмене ctx.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, workers int, log *slog.Logger, handler Handler) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go Dispatch(ctx, delivery, workers, log, handler)
	return nil
}

// Acknowledger часть amqp.Delivery для подтверждения обработки.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch раздает сообщения обработчику и подтверждает их.
func Dispatch(ctx context.Context, delivery <-chan amqp.Delivery, workers int, log *slog.Logger, handler Handler) {
	sem := make(chan struct{}, max(workers, 1))
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(ctx, d, d.Body, log, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func settle(ctx context.Context, ack Acknowledger, body []byte, log *slog.Logger, handler Handler) {
	if err := handler(ctx, body); err != nil {
		log.Error("message handling failed, requeueing", sl.Err(err))
		if nackErr := ack.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
