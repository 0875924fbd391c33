package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abakumova/marathon-bot/internal/messages"
	"github.com/abakumova/marathon-bot/internal/models"
	"github.com/abakumova/marathon-bot/internal/tasks"
	"github.com/abakumova/marathon-bot/internal/yookassa"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(reqParams yookassa.CreatePaymentRequest, idempotenceKey string) (*yookassa.Payment, error) {
	args := m.Called(reqParams, idempotenceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*yookassa.Payment), args.Error(1)
}

func (m *MockGateway) GetPayment(paymentID string) (*yookassa.Payment, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*yookassa.Payment), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upsert(ctx context.Context, userID int64, email string, paymentMethodID *string) error {
	args := m.Called(ctx, userID, email, paymentMethodID)
	return args.Error(0)
}

type MockInvites struct {
	mock.Mock
}

func (m *MockInvites) CreateInviteLink(ctx context.Context, channelID int64) (string, error) {
	args := m.Called(ctx, channelID)
	return args.String(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, userID int64, text string, button *models.Button) error {
	args := m.Called(ctx, userID, text, button)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testConfig() Config {
	return Config{
		PriceValue:   "2999.00",
		Currency:     "RUB",
		Description:  "Подписка на приватный канал",
		ExpiryWindow: 50 * time.Millisecond,
		PollInterval: time.Millisecond,
		PollAttempts: 5,
		ChannelID:    -100,
		ReturnURL:    "https://t.me/test_bot",
	}
}

func newOrchestrator(cfg Config) (*Orchestrator, *MockGateway, *MockStore, *MockInvites, *MockDispatcher, *tasks.Registry) {
	gateway := new(MockGateway)
	store := new(MockStore)
	invites := new(MockInvites)
	disp := new(MockDispatcher)
	registry := tasks.NewRegistry(newNoopLogger())
	o := New(context.Background(), gateway, store, invites, disp, registry, cfg, newNoopLogger())
	return o, gateway, store, invites, disp, registry
}

func pending(id string) *yookassa.Payment {
	return &yookassa.Payment{ID: id, Status: "pending"}
}

func succeeded(id string) *yookassa.Payment {
	return &yookassa.Payment{
		ID:            id,
		Status:        "succeeded",
		PaymentMethod: &yookassa.PaymentMethod{ID: "pm-1", Type: "bank_card"},
	}
}

func TestCreate_GatewayError(t *testing.T) {
	o, gateway, _, _, _, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(nil, errors.New("401 Unauthorized")).Once()

	url, err := o.Create(context.Background(), 1, "a@b.com")

	assert.Error(t, err)
	assert.Empty(t, url)
	// Без созданного платежа фоновый опрос не запускается.
	registry.Wait()
	assert.Equal(t, 0, registry.Stats().Completed+registry.Stats().Failed)
	gateway.AssertNotCalled(t, "GetPayment", mock.Anything)
}

func TestCreate_UsesFreshIdempotencyKeys(t *testing.T) {
	o, gateway, _, _, disp, registry := newOrchestrator(testConfig())

	var keys []string
	gateway.On("CreatePayment", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(1)) }).
		Return(&yookassa.Payment{
			ID:           "p1",
			Status:       "pending",
			Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p1"},
		}, nil).Twice()
	gateway.On("GetPayment", "p1").Return(pending("p1"), nil)
	disp.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)
	_, err = o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	registry.Wait()
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestPoll_SucceededOnThirdAttempt(t *testing.T) {
	o, gateway, store, invites, disp, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&yookassa.Payment{
		ID:           "p1",
		Status:       "pending",
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p1"},
	}, nil).Once()
	gateway.On("GetPayment", "p1").Return(pending("p1"), nil).Twice()
	gateway.On("GetPayment", "p1").Return(succeeded("p1"), nil).Once()

	store.On("Upsert", mock.Anything, int64(1), "a@b.com", mock.MatchedBy(func(pm *string) bool {
		return pm != nil && *pm == "pm-1"
	})).Return(nil).Once()
	invites.On("CreateInviteLink", mock.Anything, int64(-100)).Return("https://t.me/+invite", nil).Once()
	disp.On("Send", mock.Anything, int64(1), mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "a@b.com") && strings.Contains(text, "https://t.me/+invite")
	}), (*models.Button)(nil)).Return(nil).Once()

	url, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/p1", url)

	registry.Wait()

	store.AssertExpectations(t)
	invites.AssertExpectations(t)
	// Ровно одно терминальное уведомление.
	disp.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, 1, registry.Stats().Completed)
}

func TestPoll_Canceled(t *testing.T) {
	o, gateway, store, _, disp, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&yookassa.Payment{
		ID:           "p2",
		Status:       "pending",
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p2"},
	}, nil).Once()
	gateway.On("GetPayment", "p2").Return(&yookassa.Payment{ID: "p2", Status: "canceled"}, nil).Once()
	disp.On("Send", mock.Anything, int64(1), messages.PaymentCanceled, (*models.Button)(nil)).Return(nil).Once()

	_, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	registry.Wait()

	disp.AssertNumberOfCalls(t, "Send", 1)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPoll_TimeoutAfterAllAttempts(t *testing.T) {
	o, gateway, store, _, disp, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&yookassa.Payment{
		ID:           "p3",
		Status:       "pending",
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p3"},
	}, nil).Once()
	gateway.On("GetPayment", "p3").Return(pending("p3"), nil)
	disp.On("Send", mock.Anything, int64(1), messages.PaymentExpired, (*models.Button)(nil)).Return(nil).Once()

	_, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	registry.Wait()

	gateway.AssertNumberOfCalls(t, "GetPayment", 5)
	disp.AssertNumberOfCalls(t, "Send", 1)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPoll_TransientStatusErrorsAreRetried(t *testing.T) {
	o, gateway, store, invites, disp, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&yookassa.Payment{
		ID:           "p4",
		Status:       "pending",
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p4"},
	}, nil).Once()
	gateway.On("GetPayment", "p4").Return(nil, errors.New("timeout")).Twice()
	gateway.On("GetPayment", "p4").Return(succeeded("p4"), nil).Once()

	store.On("Upsert", mock.Anything, int64(1), "a@b.com", mock.Anything).Return(nil).Once()
	invites.On("CreateInviteLink", mock.Anything, int64(-100)).Return("https://t.me/+invite", nil).Once()
	disp.On("Send", mock.Anything, int64(1), mock.Anything, (*models.Button)(nil)).Return(nil).Once()

	_, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	registry.Wait()
	store.AssertExpectations(t)
}

func TestPoll_InviteFailureNotifiesAdminContact(t *testing.T) {
	o, gateway, store, invites, disp, registry := newOrchestrator(testConfig())

	gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&yookassa.Payment{
		ID:           "p5",
		Status:       "pending",
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://pay.example/p5"},
	}, nil).Once()
	gateway.On("GetPayment", "p5").Return(succeeded("p5"), nil).Once()

	store.On("Upsert", mock.Anything, int64(1), "a@b.com", mock.Anything).Return(nil).Once()
	invites.On("CreateInviteLink", mock.Anything, int64(-100)).Return("", errors.New("chat not found")).Once()
	disp.On("Send", mock.Anything, int64(1), messages.InviteError, (*models.Button)(nil)).Return(nil).Once()

	_, err := o.Create(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	registry.Wait()

	// Платеж не откатывается, задача фиксируется как упавшая.
	store.AssertExpectations(t)
	disp.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, 1, registry.Stats().Failed)
}
