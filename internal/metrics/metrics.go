// Package metrics регистрирует счетчики Prometheus воронки оплаты
// и конвейера уведомлений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsCreated число созданных платежей.
	PaymentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marathon_bot",
		Name:      "payments_created_total",
		Help:      "Number of payments created in the gateway.",
	})

	// PaymentOutcomes терминальные исходы опроса платежа.
	PaymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marathon_bot",
		Name:      "payment_outcomes_total",
		Help:      "Terminal outcomes of payment polling.",
	}, []string{"outcome"})

	// NotificationsPublished уведомления, опубликованные в очередь.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marathon_bot",
		Name:      "notifications_published_total",
		Help:      "Notifications published to the queue by kind.",
	}, []string{"kind"})

	// NotificationsSent уведомления, доставленные воркером.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marathon_bot",
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered to users by status.",
	}, []string{"status"})
)
