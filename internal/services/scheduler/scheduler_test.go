package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/abakumova/marathon-bot/internal/config"
	"github.com/abakumova/marathon-bot/internal/messages"
	"github.com/abakumova/marathon-bot/internal/models"
	"github.com/abakumova/marathon-bot/internal/tasks"
)

type MockSubscriptions struct {
	mock.Mock
}

func (m *MockSubscriptions) Find(ctx context.Context, userID int64) (*models.Subscription, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Subscription), args.Bool(1), args.Error(2)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(n models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

type staticUsers struct {
	ids []int64
}

func (s *staticUsers) KnownUsers() []int64 {
	return s.ids
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newScheduler(delay time.Duration, users []int64, broadcasts []config.Broadcast) (*Scheduler, *MockSubscriptions, *MockPublisher, *tasks.Registry) {
	subs := new(MockSubscriptions)
	publisher := new(MockPublisher)
	registry := tasks.NewRegistry(newNoopLogger())
	s := New(context.Background(), subs, &staticUsers{ids: users}, publisher, registry, delay, broadcasts, newNoopLogger())
	return s, subs, publisher, registry
}

func TestScheduleReminder_FiresWhenNoSubscription(t *testing.T) {
	s, subs, publisher, registry := newScheduler(5*time.Millisecond, nil, nil)

	subs.On("Find", mock.Anything, int64(1)).Return(nil, false, nil).Once()
	publisher.On("Publish", models.Notification{UserID: 1, Text: messages.Reminder}).Return(nil).Once()

	s.ScheduleReminder(1)
	registry.Wait()

	publisher.AssertExpectations(t)
	assert.Equal(t, 1, registry.Stats().Completed)
}

func TestScheduleReminder_SuppressedWhenSubscribed(t *testing.T) {
	s, subs, publisher, registry := newScheduler(5*time.Millisecond, nil, nil)

	subs.On("Find", mock.Anything, int64(1)).Return(&models.Subscription{UserID: 1}, true, nil).Once()

	s.ScheduleReminder(1)
	registry.Wait()

	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestScheduleReminder_ArmedOncePerUser(t *testing.T) {
	s, subs, publisher, registry := newScheduler(5*time.Millisecond, nil, nil)

	subs.On("Find", mock.Anything, int64(1)).Return(nil, false, nil).Once()
	publisher.On("Publish", mock.Anything).Return(nil).Once()

	s.ScheduleReminder(1)
	s.ScheduleReminder(1)
	s.ScheduleReminder(1)
	registry.Wait()

	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBroadcast_SkipsSubscribedUsers(t *testing.T) {
	s, subs, publisher, _ := newScheduler(time.Hour, []int64{1, 2}, nil)

	subs.On("Find", mock.Anything, int64(1)).Return(&models.Subscription{UserID: 1}, true, nil).Once()
	subs.On("Find", mock.Anything, int64(2)).Return(nil, false, nil).Once()
	publisher.On("Publish", models.Notification{UserID: 2, Text: "msg"}).Return(nil).Once()

	s.broadcast(context.Background(), "msg")

	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBroadcast_PartialFailureStillReachesOthers(t *testing.T) {
	s, subs, publisher, _ := newScheduler(time.Hour, []int64{1, 2, 3}, nil)

	subs.On("Find", mock.Anything, mock.Anything).Return(nil, false, nil)
	publisher.On("Publish", models.Notification{UserID: 2, Text: "msg"}).Return(errors.New("send failed")).Once()
	publisher.On("Publish", mock.Anything).Return(nil)

	s.broadcast(context.Background(), "msg")

	// Ошибка по одному пользователю не мешает остальным.
	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestRunBroadcast_RelativeTrigger(t *testing.T) {
	broadcasts := []config.Broadcast{{After: 5 * time.Millisecond, Message: "скоро старт"}}
	s, subs, publisher, registry := newScheduler(time.Hour, []int64{1}, broadcasts)

	subs.On("Find", mock.Anything, int64(1)).Return(nil, false, nil).Once()
	publisher.On("Publish", models.Notification{UserID: 1, Text: "скоро старт"}).Return(nil).Once()

	s.Run()
	registry.Wait()

	publisher.AssertExpectations(t)
}

func TestRunBroadcast_PastAbsoluteTriggerSkipped(t *testing.T) {
	broadcasts := []config.Broadcast{{At: time.Now().Add(-time.Hour), Message: "опоздали"}}
	s, _, publisher, registry := newScheduler(time.Hour, []int64{1}, broadcasts)

	s.Run()
	registry.Wait()

	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}
