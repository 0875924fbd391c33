// Package sender содержит сборку воркера доставки уведомлений.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/abakumova/marathon-bot/internal/config"
	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/rabbitmq"
	senderservice "github.com/abakumova/marathon-bot/internal/services/sender"
	"github.com/abakumova/marathon-bot/internal/telegram"
)

// App представляет воркер доставки уведомлений.
type App struct {
	senderService *senderservice.SenderService
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

// New собирает зависимости воркера.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	tg, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to init telegram client: %w", err)
	}
	logger.Info("authorized in telegram", slog.String("bot", tg.Username()))

	return &App{
		senderService: senderservice.New(tg, logger),
		conn:          conn,
		ch:            ch,
		logger:        logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает потребление очереди уведомлений до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.OutboundQueue, a.senderService.HandleNotification)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	a.logger.Info("notification sender started")

	<-ctx.Done()

	a.logger.Info("shutting down notification sender")
	closeResources(a.ch, a.conn, a.logger)
	return nil
}
