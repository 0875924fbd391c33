// Package sender реализует воркер доставки уведомлений: разбирает
// сообщение из очереди и отправляет его пользователю через Telegram.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/metrics"
	"github.com/abakumova/marathon-bot/internal/models"
)

// Dispatcher исходящая отправка сообщений пользователю.
type Dispatcher interface {
	Send(ctx context.Context, userID int64, text string, button *models.Button) error
}

// SenderService сервис доставки уведомлений из очереди.
type SenderService struct {
	disp Dispatcher
	log  *slog.Logger
}

// New создает новый экземпляр SenderService.
func New(disp Dispatcher, log *slog.Logger) *SenderService {
	return &SenderService{
		disp: disp,
		log:  log,
	}
}

// HandleNotification обрабатывает одно сообщение очереди. Ошибка отправки
// логируется, но не возвращается: уведомления не доставляются повторно.
func (s *SenderService) HandleNotification(body []byte) error {
	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	if err := s.disp.Send(context.Background(), n.UserID, n.Text, n.Button); err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		s.log.Error("failed to deliver notification", sl.User(n.UserID), sl.Err(err))
		return nil
	}
	metrics.NotificationsSent.WithLabelValues("ok").Inc()
	s.log.Info("notification delivered", sl.User(n.UserID))
	return nil
}
