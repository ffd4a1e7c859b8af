package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди queueName.
// Сообщение подтверждается, если handler вернул nil, иначе возвращается в очередь.
// Потребитель останавливается при отмене ctx или закрытии канала.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error) error {
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

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, 10)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(ctx, delivery.Body); err != nil {
						log.Warn("message handling failed, requeue", sl.Err(err))
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
