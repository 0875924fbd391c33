// Package orchestrator управляет жизненным циклом платежа: создает платеж
// в ЮKassa, фоново опрашивает его статус ограниченное число раз и доводит
// каждый платеж ровно до одного терминального исхода — успеха, отмены или
// истечения окна оплаты.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/messages"
	"github.com/abakumova/marathon-bot/internal/metrics"
	"github.com/abakumova/marathon-bot/internal/models"
	"github.com/abakumova/marathon-bot/internal/tasks"
	"github.com/abakumova/marathon-bot/internal/yookassa"
)

// GatewayClient интерфейс платежного шлюза.
type GatewayClient interface {
	CreatePayment(reqParams yookassa.CreatePaymentRequest, idempotenceKey string) (*yookassa.Payment, error)
	GetPayment(paymentID string) (*yookassa.Payment, error)
}

// SubscriptionStore запись подписки после успешной оплаты.
type SubscriptionStore interface {
	Upsert(ctx context.Context, userID int64, email string, paymentMethodID *string) error
}

// InviteCreator создает одноразовую пригласительную ссылку в канал.
type InviteCreator interface {
	CreateInviteLink(ctx context.Context, channelID int64) (string, error)
}

// Dispatcher исходящая отправка сообщений пользователю.
type Dispatcher interface {
	Send(ctx context.Context, userID int64, text string, button *models.Button) error
}

// Config фиксированные параметры платежа и опроса.
type Config struct {
	PriceValue   string
	Currency     string
	Description  string
	ExpiryWindow time.Duration
	PollInterval time.Duration
	PollAttempts int
	ChannelID    int64
	ReturnURL    string
}

// Orchestrator оркестратор платежей.
type Orchestrator struct {
	gateway GatewayClient
	store   SubscriptionStore
	invites InviteCreator
	disp    Dispatcher
	tasks   *tasks.Registry
	cfg     Config
	log     *slog.Logger

	// baseCtx живет столько же, сколько процесс: задача опроса не должна
	// отменяться вместе с обработкой входящего сообщения.
	baseCtx context.Context
}

// New создает новый экземпляр Orchestrator.
func New(baseCtx context.Context, gateway GatewayClient, store SubscriptionStore, invites InviteCreator,
	disp Dispatcher, registry *tasks.Registry, cfg Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		store:   store,
		invites: invites,
		disp:    disp,
		tasks:   registry,
		cfg:     cfg,
		log:     log,
		baseCtx: baseCtx,
	}
}

// Create создает платеж с фиксированной суммой, коротким окном действия
// и свежим ключом идемпотентности, запускает фоновый опрос статуса и
// возвращает ссылку на страницу оплаты. При ошибке шлюза никакой записи
// о платеже не остается: пользователь может повторить buy.
func (o *Orchestrator) Create(ctx context.Context, userID int64, email string) (string, error) {
	const op = "orchestrator.Create"

	expiresAt := time.Now().UTC().Add(o.cfg.ExpiryWindow).Format(time.RFC3339)
	amount := yookassa.Amount{Value: o.cfg.PriceValue, Currency: o.cfg.Currency}
	req := yookassa.CreatePaymentRequest{
		Amount:       amount,
		Confirmation: &yookassa.Confirmation{Type: "redirect", ReturnURL: o.cfg.ReturnURL},
		Capture:      true,
		Description:  o.cfg.Description,
		ExpiresAt:    expiresAt,
		Receipt: &yookassa.Receipt{
			Customer: yookassa.ReceiptCustomer{Email: email},
			Items: []yookassa.ReceiptItem{{
				Description:    o.cfg.Description,
				Quantity:       "1.00",
				Amount:         amount,
				VatCode:        1,
				PaymentSubject: "service",
				PaymentMode:    "full_payment",
			}},
		},
	}

	payment, err := o.gateway.CreatePayment(req, uuid.New().String())
	if err != nil {
		return "", fmt.Errorf("%s: gateway: %w", op, err)
	}
	if payment.Confirmation == nil || payment.Confirmation.ConfirmationURL == "" {
		return "", fmt.Errorf("%s: gateway returned no confirmation url", op)
	}
	metrics.PaymentsCreated.Inc()
	o.log.Info("payment created", sl.User(userID), slog.String("payment_id", payment.ID))

	paymentID := payment.ID
	o.tasks.Go(o.baseCtx, "poll:"+paymentID, func(ctx context.Context) error {
		return o.poll(ctx, userID, paymentID, email)
	})

	return payment.Confirmation.ConfirmationURL, nil
}

// poll опрашивает статус платежа с фиксированным интервалом, не более
// PollAttempts раз. Суммарное время примерно равно окну действия платежа,
// поэтому собственное сообщение об истечении окна всегда успевает раньше
// ответа шлюза и остается единственным видимым пользователю исходом.
func (o *Orchestrator) poll(ctx context.Context, userID int64, paymentID, email string) error {
	const op = "orchestrator.poll"

	for range o.cfg.PollAttempts {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(o.cfg.PollInterval):
		}

		payment, err := o.gateway.GetPayment(paymentID)
		if err != nil {
			o.log.Warn("payment status query failed", slog.String("payment_id", paymentID), sl.Err(err))
			continue
		}

		switch models.PaymentStatus(payment.Status) {
		case models.PaymentStatusSucceeded:
			return o.grantAccess(ctx, userID, payment, email)
		case models.PaymentStatusCanceled:
			metrics.PaymentOutcomes.WithLabelValues("canceled").Inc()
			o.log.Info("payment canceled", sl.User(userID), slog.String("payment_id", paymentID))
			if err := o.disp.Send(ctx, userID, messages.PaymentCanceled, nil); err != nil {
				o.log.Error("failed to send cancellation notice", sl.User(userID), sl.Err(err))
			}
			return nil
		}
	}

	metrics.PaymentOutcomes.WithLabelValues("expired").Inc()
	o.log.Info("payment window expired", sl.User(userID), slog.String("payment_id", paymentID))
	if err := o.disp.Send(ctx, userID, messages.PaymentExpired, nil); err != nil {
		o.log.Error("failed to send expiry notice", sl.User(userID), sl.Err(err))
	}
	return nil
}

// grantAccess фиксирует подписку и выдает одноразовую ссылку в канал.
// Если выдать доступ не удалось, платеж не откатывается — деньги уже
// списаны; пользователя направляют к администратору.
func (o *Orchestrator) grantAccess(ctx context.Context, userID int64, payment *yookassa.Payment, email string) error {
	const op = "orchestrator.grantAccess"

	var paymentMethodID *string
	if payment.PaymentMethod != nil && payment.PaymentMethod.ID != "" {
		paymentMethodID = &payment.PaymentMethod.ID
	}

	if err := o.store.Upsert(ctx, userID, email, paymentMethodID); err != nil {
		metrics.PaymentOutcomes.WithLabelValues("grant_failed").Inc()
		o.log.Error("failed to store subscription", sl.User(userID), sl.Err(err))
		if sendErr := o.disp.Send(ctx, userID, messages.InviteError, nil); sendErr != nil {
			o.log.Error("failed to send grant error notice", sl.User(userID), sl.Err(sendErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	inviteURL, err := o.invites.CreateInviteLink(ctx, o.cfg.ChannelID)
	if err != nil {
		metrics.PaymentOutcomes.WithLabelValues("grant_failed").Inc()
		o.log.Error("failed to create invite link", sl.User(userID), sl.Err(err))
		if sendErr := o.disp.Send(ctx, userID, messages.InviteError, nil); sendErr != nil {
			o.log.Error("failed to send grant error notice", sl.User(userID), sl.Err(sendErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.PaymentOutcomes.WithLabelValues("succeeded").Inc()
	o.log.Info("subscription granted", sl.User(userID), slog.String("payment_id", payment.ID))
	if err := o.disp.Send(ctx, userID, messages.Success(email, inviteURL), nil); err != nil {
		o.log.Error("failed to send success notice", sl.User(userID), sl.Err(err))
	}
	return nil
}
