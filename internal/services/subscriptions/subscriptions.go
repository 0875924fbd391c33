// Package subscriptions содержит сервис доступа к хранилищу подписок.
// Сервис объединяет PostgreSQL и кэш в Redis: чтения идут через кэш,
// запись обновляет базу и кэш. Именно этот сервис опрашивают трекер
// диалога и планировщик напоминаний, решая, оплачен ли доступ.
package subscriptions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/models"
)

// SubscriptionRepository интерфейс хранилища подписок.
type SubscriptionRepository interface {
	FindSubscription(ctx context.Context, userID int64) (*models.Subscription, bool, error)
	UpsertSubscription(ctx context.Context, userID int64, email string, paymentMethodID *string) error
}

// SubscriptionCache интерфейс кэша подписок.
type SubscriptionCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// StoreService сервис доступа к подпискам.
type StoreService struct {
	repo     SubscriptionRepository
	cache    SubscriptionCache
	cacheTTL time.Duration
	log      *slog.Logger
}

// New создает новый экземпляр StoreService. Кэш опционален: при nil
// все чтения идут напрямую в базу.
func New(repo SubscriptionRepository, cache SubscriptionCache, log *slog.Logger) *StoreService {
	return &StoreService{
		repo:     repo,
		cache:    cache,
		cacheTTL: 10 * time.Minute,
		log:      log,
	}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("subscription:%d", userID)
}

// Find возвращает подписку пользователя. Сначала проверяется кэш, при
// промахе — база; найденная запись кладется в кэш. Ошибки кэша не
// фатальны: чтение продолжается из базы.
func (s *StoreService) Find(ctx context.Context, userID int64) (*models.Subscription, bool, error) {
	if s.cache != nil {
		var cached models.Subscription
		found, err := s.cache.Get(cacheKey(userID), &cached)
		if err != nil {
			s.log.Warn("cache read failed", sl.User(userID), sl.Err(err))
		} else if found {
			return &cached, true, nil
		}
	}

	sub, found, err := s.repo.FindSubscription(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find subscription: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey(userID), sub, s.cacheTTL); err != nil {
			s.log.Warn("cache write failed", sl.User(userID), sl.Err(err))
		}
	}
	return sub, true, nil
}

// Upsert сохраняет подписку, перезаписывая прежнюю запись для того же
// пользователя. Повторные вызовы с тем же ключом идемпотентны.
func (s *StoreService) Upsert(ctx context.Context, userID int64, email string, paymentMethodID *string) error {
	if err := s.repo.UpsertSubscription(ctx, userID, email, paymentMethodID); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	if s.cache != nil {
		sub := models.Subscription{
			UserID:          userID,
			Email:           email,
			PaymentMethodID: paymentMethodID,
			GrantedAt:       time.Now(),
		}
		if err := s.cache.Set(cacheKey(userID), sub, s.cacheTTL); err != nil {
			s.log.Warn("cache write failed", sl.User(userID), sl.Err(err))
		}
	}
	return nil
}
