// Package scheduler реализует планировщик напоминаний: отложенное
// одноразовое напоминание для каждого пользователя и рассылки по
// календарному расписанию. Оба механизма перед отправкой сверяются с
// хранилищем подписок и молча пропускают уже оплативших пользователей.
// Сами сообщения публикуются в очередь, доставляет их воркер-отправитель.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abakumova/marathon-bot/internal/config"
	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/messages"
	"github.com/abakumova/marathon-bot/internal/metrics"
	"github.com/abakumova/marathon-bot/internal/models"
	"github.com/abakumova/marathon-bot/internal/tasks"
)

// SubscriptionProvider источник истины о том, оплачен ли доступ.
type SubscriptionProvider interface {
	Find(ctx context.Context, userID int64) (*models.Subscription, bool, error)
}

// UserRegistry список известных боту пользователей.
type UserRegistry interface {
	KnownUsers() []int64
}

// Publisher публикация уведомления в очередь.
type Publisher interface {
	Publish(n models.Notification) error
}

// Scheduler планировщик напоминаний и рассылок.
type Scheduler struct {
	subs       SubscriptionProvider
	users      UserRegistry
	publisher  Publisher
	tasks      *tasks.Registry
	delay      time.Duration
	broadcasts []config.Broadcast
	log        *slog.Logger

	baseCtx context.Context

	mu    sync.Mutex
	armed map[int64]struct{}
}

// New создает новый экземпляр Scheduler.
func New(baseCtx context.Context, subs SubscriptionProvider, users UserRegistry, publisher Publisher,
	registry *tasks.Registry, delay time.Duration, broadcasts []config.Broadcast, log *slog.Logger) *Scheduler {
	return &Scheduler{
		subs:       subs,
		users:      users,
		publisher:  publisher,
		tasks:      registry,
		delay:      delay,
		broadcasts: broadcasts,
		log:        log,
		baseCtx:    baseCtx,
		armed:      make(map[int64]struct{}),
	}
}

// ScheduleReminder откладывает одноразовое напоминание пользователю.
// Для каждого пользователя напоминание взводится не более одного раза
// за время жизни процесса: повторные /start его не перевзводят.
func (s *Scheduler) ScheduleReminder(userID int64) {
	s.mu.Lock()
	if _, ok := s.armed[userID]; ok {
		s.mu.Unlock()
		return
	}
	s.armed[userID] = struct{}{}
	s.mu.Unlock()

	s.tasks.Go(s.baseCtx, fmt.Sprintf("reminder:%d", userID), func(ctx context.Context) error {
		return s.runReminder(ctx, userID)
	})
}

func (s *Scheduler) runReminder(ctx context.Context, userID int64) error {
	const op = "scheduler.runReminder"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case <-time.After(s.delay):
	}

	_, found, err := s.subs.Find(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found {
		s.log.Debug("reminder suppressed, user subscribed", sl.User(userID))
		return nil
	}

	if err := s.publisher.Publish(models.Notification{UserID: userID, Text: messages.Reminder}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsPublished.WithLabelValues("reminder").Inc()
	s.log.Info("reminder published", sl.User(userID))
	return nil
}

// Run запускает по одной фоновой задаче на каждую настроенную рассылку.
func (s *Scheduler) Run() {
	for i, b := range s.broadcasts {
		s.tasks.Go(s.baseCtx, fmt.Sprintf("broadcast:%d", i), func(ctx context.Context) error {
			return s.runBroadcast(ctx, b)
		})
	}
}

// runBroadcast ждет момента срабатывания рассылки и рассылает сообщение.
// Абсолютный момент в прошлом без интервала повторения пропускается.
func (s *Scheduler) runBroadcast(ctx context.Context, b config.Broadcast) error {
	const op = "scheduler.runBroadcast"

	var wait time.Duration
	switch {
	case !b.At.IsZero():
		wait = time.Until(b.At)
	default:
		wait = b.After
	}
	if wait < 0 {
		if b.Every <= 0 {
			s.log.Warn("broadcast trigger is in the past, skipping", slog.Time("at", b.At))
			return nil
		}
		wait = b.Every
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(wait):
		}

		s.broadcast(ctx, b.Message)

		if b.Every <= 0 {
			return nil
		}
		wait = b.Every
	}
}

// broadcast публикует сообщение всем известным пользователям без
// подписки. Ошибка по одному пользователю не останавливает обход.
func (s *Scheduler) broadcast(ctx context.Context, message string) {
	users := s.users.KnownUsers()
	s.log.Info("broadcast firing", slog.Int("known_users", len(users)))

	for _, userID := range users {
		_, found, err := s.subs.Find(ctx, userID)
		if err != nil {
			s.log.Error("failed to check subscription", sl.User(userID), sl.Err(err))
			continue
		}
		if found {
			continue
		}
		if err := s.publisher.Publish(models.Notification{UserID: userID, Text: message}); err != nil {
			s.log.Error("failed to publish broadcast", sl.User(userID), sl.Err(err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues("broadcast").Inc()
	}
}
