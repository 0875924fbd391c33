package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// ExchangeName общий exchange уведомлений.
	ExchangeName = "notifications"
	// OutboundQueue очередь исходящих сообщений пользователям.
	OutboundQueue = "notifications.outbound"
	// OutboundKey ключ маршрутизации исходящих сообщений.
	OutboundKey = "outbound"
)

// SetupChannel открывает канал и объявляет exchange и очередь исходящих
// уведомлений с привязкой по ключу маршрутизации.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = ch.QueueDeclare(
		OutboundQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, OutboundQueue, err)
	}

	err = ch.QueueBind(OutboundQueue, OutboundKey, ExchangeName, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, OutboundQueue, err)
	}

	return ch, nil
}
