// Package storage реализует хранилище подписок на основе PostgreSQL.
// Таблица subscriptions — единственный источник истины о том, оплачен ли
// доступ пользователя к каналу.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/abakumova/marathon-bot/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и инициализирует таблицу подписок.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{DB: db}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *Storage) initSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS subscriptions(
			user_id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			payment_method_id TEXT,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create subscriptions table: %w", err)
	}
	return nil
}

// FindSubscription возвращает подписку пользователя. Второе возвращаемое
// значение сообщает, найдена ли запись.
func (s *Storage) FindSubscription(ctx context.Context, userID int64) (*models.Subscription, bool, error) {
	const op = "storage.FindSubscription"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, email, payment_method_id, granted_at
			  FROM subscriptions WHERE user_id = $1`
	row := s.DB.QueryRowContext(ctx, query, userID)

	var sub models.Subscription
	var paymentMethodID sql.NullString
	if err := row.Scan(&sub.UserID, &sub.Email, &paymentMethodID, &sub.GrantedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if paymentMethodID.Valid {
		sub.PaymentMethodID = &paymentMethodID.String
	}
	return &sub, true, nil
}

// UpsertSubscription сохраняет подписку пользователя, перезаписывая прежнюю
// запись, если она была. Конкурентные записи по одному ключу сериализуются
// самой базой: INSERT ... ON CONFLICT атомарен.
func (s *Storage) UpsertSubscription(ctx context.Context, userID int64, email string, paymentMethodID *string) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, email, payment_method_id)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id) DO UPDATE
			  SET email = EXCLUDED.email, payment_method_id = EXCLUDED.payment_method_id`
	if _, err := s.DB.ExecContext(ctx, query, userID, email, paymentMethodID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountSubscriptions возвращает число оплаченных подписок.
func (s *Storage) CountSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.CountSubscriptions"

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(s *Storage) error {
	const op = "storage.CheckDatabaseReady"
	if err := s.DB.Ping(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
