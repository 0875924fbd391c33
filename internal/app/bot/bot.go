// Package bot содержит сборку и цикл работы основного процесса бота:
// прием обновлений Telegram, воронка оплаты и планировщик напоминаний.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"

	"github.com/abakumova/marathon-bot/internal/api"
	"github.com/abakumova/marathon-bot/internal/config"
	"github.com/abakumova/marathon-bot/internal/lib/sl"
	"github.com/abakumova/marathon-bot/internal/rabbitmq"
	orchestratorservice "github.com/abakumova/marathon-bot/internal/services/orchestrator"
	schedulerservice "github.com/abakumova/marathon-bot/internal/services/scheduler"
	"github.com/abakumova/marathon-bot/internal/services/subscriptions"
	trackerservice "github.com/abakumova/marathon-bot/internal/services/tracker"
	"github.com/abakumova/marathon-bot/internal/storage"
	"github.com/abakumova/marathon-bot/internal/storage/cache"
	"github.com/abakumova/marathon-bot/internal/tasks"
	"github.com/abakumova/marathon-bot/internal/telegram"
	"github.com/abakumova/marathon-bot/internal/yookassa"
)

// App представляет собранный процесс бота.
type App struct {
	cfg       *config.Config
	tracker   *trackerservice.Tracker
	scheduler *schedulerservice.Scheduler
	registry  *tasks.Registry
	tg        *telegram.Client
	db        *storage.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

type reminderRelay struct {
	scheduler *schedulerservice.Scheduler
}

func (r *reminderRelay) ScheduleReminder(userID int64) {
	r.scheduler.ScheduleReminder(userID)
}

func waitForDB(db *storage.Storage) error {
	for range 10 {
		err := storage.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New собирает все зависимости процесса бота.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	tg, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to init telegram client: %w", err)
	}
	logger.Info("authorized in telegram", slog.String("bot", tg.Username()))

	registry := tasks.NewRegistry(logger)
	subsService := subscriptions.New(db, cacheRedis, logger)
	publisher := rabbitmq.NewNotificationPublisher(ch)
	gateway := yookassa.NewClient(cfg.YooKassa.ShopID, cfg.YooKassa.SecretKey)

	orchestrator := orchestratorservice.New(ctx, gateway, subsService, tg, tg, registry, orchestratorservice.Config{
		PriceValue:   cfg.Payment.PriceValue,
		Currency:     cfg.Payment.Currency,
		Description:  cfg.Payment.Description,
		ExpiryWindow: cfg.Payment.ExpiryWindow,
		PollInterval: cfg.Payment.PollInterval,
		PollAttempts: cfg.Payment.PollAttempts,
		ChannelID:    cfg.Telegram.ChannelID,
		ReturnURL:    cfg.Telegram.ReturnURL,
	}, logger)

	// Трекер и планировщик ссылаются друг на друга: трекер взводит
	// напоминания, планировщик берет у трекера список известных
	// пользователей. Цикл разрывается через relay.
	relay := &reminderRelay{}
	tracker := trackerservice.New(subsService, orchestrator, relay, tg, logger)

	scheduler := schedulerservice.New(ctx, subsService, tracker, publisher, registry,
		cfg.Reminder.Delay, cfg.Broadcasts, logger)
	relay.scheduler = scheduler

	return &App{
		cfg:       cfg,
		tracker:   tracker,
		scheduler: scheduler,
		registry:  registry,
		tg:        tg,
		db:        db,
		conn:      conn,
		ch:        ch,
		logger:    logger,
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

// Run запускает рассылки, служебный HTTP-сервер и цикл обновлений Telegram.
// Завершается по отмене контекста; незавершенные фоновые задачи при этом
// не сохраняются.
func (a *App) Run(ctx context.Context) error {
	if err := a.tg.SetCommands(); err != nil {
		a.logger.Error("failed to set bot commands", sl.Err(err))
	}

	a.scheduler.Run()

	srv := &http.Server{
		Addr:         a.cfg.AddressHTTP,
		Handler:      api.NewRouter(a.logger, a.registry),
		ReadTimeout:  a.cfg.TimeoutHTTP,
		WriteTimeout: a.cfg.TimeoutHTTP,
		IdleTimeout:  a.cfg.IdleTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server stopped", sl.Err(err))
		}
	}()

	updates := a.tg.Updates()
	a.logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down bot")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("failed to shutdown http server", sl.Err(err))
			}
			closeResources(a.ch, a.conn, a.logger)
			if err := a.db.DB.Close(); err != nil {
				a.logger.Error("failed to close storage", sl.Err(err))
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			a.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate маршрутизирует одно обновление Telegram в трекер диалога.
func (a *App) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		a.tg.AckCallback(update.CallbackQuery.ID)
		if update.CallbackQuery.Data == trackerservice.BuyCallbackData {
			a.logHandled(a.tracker.HandleBuy(ctx, update.CallbackQuery.From.ID), update.CallbackQuery.From.ID)
		}
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			a.logHandled(a.tracker.HandleStart(ctx, userID), userID)
		case "buy":
			a.logHandled(a.tracker.HandleBuy(ctx, userID), userID)
		}
		return
	}

	if a.tracker.AwaitingEmail(userID) {
		a.logHandled(a.tracker.HandleText(ctx, userID, update.Message.Text), userID)
	}
}

func (a *App) logHandled(err error, userID int64) {
	if err == nil {
		return
	}
	// Отказы пользователю — часть нормального сценария, не ошибки процесса.
	if errors.Is(err, trackerservice.ErrAlreadySubscribed) || errors.Is(err, trackerservice.ErrInvalidEmail) {
		a.logger.Info("request rejected", sl.User(userID), sl.Err(err))
		return
	}
	a.logger.Error("failed to handle update", sl.User(userID), sl.Err(err))
}
