// Package models содержит доменные структуры бота: подписку на канал,
// статусы платежа, состояния диалога и сообщение для очереди уведомлений.
package models

import "time"

// Subscription представляет оплаченный доступ пользователя к приватному каналу.
// На одного пользователя существует не более одной записи; сам факт наличия
// записи означает, что доступ уже куплен.
type Subscription struct {
	UserID          int64      // Telegram ID пользователя
	Email           string     // Email для отправки чека
	PaymentMethodID *string    // ID платежного метода в ЮKassa (nil, если не сохранён)
	GrantedAt       time.Time  // Момент предоставления доступа
}

// PaymentStatus статус платежа в ЮKassa.
type PaymentStatus string

const (
	// PaymentStatusPending платеж создан и ожидает оплаты.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusSucceeded платеж успешно завершен.
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	// PaymentStatusCanceled платеж отменен пользователем или шлюзом.
	PaymentStatusCanceled PaymentStatus = "canceled"
	// PaymentStatusExpired окно оплаты истекло, терминальный статус опроса.
	PaymentStatusExpired PaymentStatus = "expired"
)

// Terminal сообщает, является ли статус терминальным: после него
// переходов больше не происходит.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled || s == PaymentStatusExpired
}

// SessionState состояние диалога с пользователем.
type SessionState int

const (
	// StateIdle пользователь не находится в сценарии покупки.
	StateIdle SessionState = iota
	// StateAwaitingEmail бот ожидает от пользователя email для чека.
	StateAwaitingEmail
)

// Button кнопка под сообщением: либо URL, либо callback.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
}

// Notification сообщение для очереди уведомлений. Публикуется планировщиком
// напоминаний и доставляется отдельным воркером.
type Notification struct {
	UserID int64   `json:"user_id"`
	Text   string  `json:"text"`
	Button *Button `json:"button,omitempty"`
}
