package rabbitmq

import (
	"github.com/abakumova/marathon-bot/internal/models"
)

// NotificationPublisher публикует уведомления пользователям в очередь
// исходящих сообщений. Доставкой занимается отдельный воркер.
type NotificationPublisher struct {
	ch Channel
}

// NewNotificationPublisher создает издателя поверх открытого канала.
func NewNotificationPublisher(ch Channel) *NotificationPublisher {
	return &NotificationPublisher{ch: ch}
}

// Publish отправляет уведомление в очередь.
func (p *NotificationPublisher) Publish(n models.Notification) error {
	return PublishMessage(p.ch, ExchangeName, OutboundKey, n)
}
