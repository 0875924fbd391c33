// Package tracker реализует машину состояний диалога с пользователем:
// приветствие, запуск покупки и прием email для чека. Трекер владеет
// реестром сессий — он же список известных боту пользователей.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/messages"
	"github.com/abakumova/marathon-bot/internal/models"
)

// ErrAlreadySubscribed пользователь уже оплатил доступ, повторная покупка отклонена.
var ErrAlreadySubscribed = errors.New("user already has an active subscription")

// ErrInvalidEmail присланный текст не похож на email.
var ErrInvalidEmail = errors.New("invalid email format")

// BuyCallbackData значение callback-кнопки "КУПИТЬ" под сообщением-офером.
const BuyCallbackData = "buy_subscription"

// SubscriptionProvider источник истины о том, оплачен ли доступ.
type SubscriptionProvider interface {
	Find(ctx context.Context, userID int64) (*models.Subscription, bool, error)
}

// PaymentCreator запускает платеж и возвращает ссылку на страницу оплаты.
type PaymentCreator interface {
	Create(ctx context.Context, userID int64, email string) (confirmationURL string, err error)
}

// ReminderScheduler откладывает напоминание для пользователя без подписки.
type ReminderScheduler interface {
	ScheduleReminder(userID int64)
}

// Dispatcher исходящая отправка сообщений, без гарантии доставки.
type Dispatcher interface {
	Send(ctx context.Context, userID int64, text string, button *models.Button) error
}

type session struct {
	state models.SessionState
}

// Tracker машина состояний диалога.
type Tracker struct {
	subs      SubscriptionProvider
	payments  PaymentCreator
	reminders ReminderScheduler
	disp      Dispatcher
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// New создает новый экземпляр Tracker.
func New(subs SubscriptionProvider, payments PaymentCreator, reminders ReminderScheduler, disp Dispatcher, log *slog.Logger) *Tracker {
	return &Tracker{
		subs:      subs,
		payments:  payments,
		reminders: reminders,
		disp:      disp,
		log:       log,
		sessions:  make(map[int64]*session),
	}
}

func (t *Tracker) session(userID int64) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	if !ok {
		s = &session{state: models.StateIdle}
		t.sessions[userID] = s
	}
	return s
}

// HandleStart обрабатывает /start: регистрирует пользователя, отправляет
// приветствие и офер с кнопкой покупки. Если подписки еще нет,
// откладывает одноразовое напоминание.
func (t *Tracker) HandleStart(ctx context.Context, userID int64) error {
	const op = "tracker.HandleStart"

	t.session(userID)

	if err := t.disp.Send(ctx, userID, messages.Intro, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	button := &models.Button{Text: messages.BuyButton, Data: BuyCallbackData}
	if err := t.disp.Send(ctx, userID, messages.Offer, button); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, found, err := t.subs.Find(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		t.reminders.ScheduleReminder(userID)
	}
	return nil
}

// HandleBuy обрабатывает покупку. Если подписка уже есть, отказывает
// без смены состояния. Повторный buy в состоянии ожидания email — это
// идемпотентный повтор запроса, не ошибка.
func (t *Tracker) HandleBuy(ctx context.Context, userID int64) error {
	const op = "tracker.HandleBuy"

	_, found, err := t.subs.Find(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found {
		if err := t.disp.Send(ctx, userID, messages.AlreadySubscribed, nil); err != nil {
			t.log.Error("failed to send rejection", sl.User(userID), sl.Err(err))
		}
		return ErrAlreadySubscribed
	}

	s := t.session(userID)
	t.mu.Lock()
	s.state = models.StateAwaitingEmail
	t.mu.Unlock()

	if err := t.disp.Send(ctx, userID, messages.AskEmail, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HandleText обрабатывает свободный текст. Вне состояния ожидания email
// текст игнорируется. Невалидный email оставляет состояние прежним и
// переспрашивает; валидный запускает платеж, после чего диалог
// возвращается в Idle независимо от исхода, чтобы buy можно было
// повторить.
func (t *Tracker) HandleText(ctx context.Context, userID int64, text string) error {
	const op = "tracker.HandleText"

	s := t.session(userID)
	t.mu.Lock()
	state := s.state
	t.mu.Unlock()
	if state != models.StateAwaitingEmail {
		return nil
	}

	email := strings.TrimSpace(text)
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		if err := t.disp.Send(ctx, userID, messages.BadEmail, nil); err != nil {
			t.log.Error("failed to send reprompt", sl.User(userID), sl.Err(err))
		}
		return ErrInvalidEmail
	}

	confirmationURL, err := t.payments.Create(ctx, userID, email)

	t.mu.Lock()
	s.state = models.StateIdle
	t.mu.Unlock()

	if err != nil {
		if sendErr := t.disp.Send(ctx, userID, messages.PaymentCreateError, nil); sendErr != nil {
			t.log.Error("failed to send payment error", sl.User(userID), sl.Err(sendErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	button := &models.Button{Text: messages.PayButton, URL: confirmationURL}
	if err := t.disp.Send(ctx, userID, messages.PaymentLink, button); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AwaitingEmail сообщает, ждет ли бот email от пользователя.
// Используется роутером для маршрутизации свободного текста.
func (t *Tracker) AwaitingEmail(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	return ok && s.state == models.StateAwaitingEmail
}

// KnownUsers возвращает снимок списка известных боту пользователей.
func (t *Tracker) KnownUsers() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	users := make([]int64, 0, len(t.sessions))
	for id := range t.sessions {
		users = append(users, id)
	}
	return users
}
