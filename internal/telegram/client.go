// Package telegram реализует транспорт исходящих сообщений бота:
// отправку текста с inline-кнопками и создание одноразовых
// пригласительных ссылок в приватный канал.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/abakumova/marathon-bot/internal/models"
)

// Client обертка над Telegram Bot API. Все отправки проходят через
// rate limiter: Telegram ограничивает ботов примерно 30 сообщениями
// в секунду.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     *slog.Logger
}

// New создает клиент Telegram и проверяет токен запросом getMe.
func New(token string, log *slog.Logger) (*Client, error) {
	const op = "telegram.New"

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		log:     log,
	}, nil
}

// Username возвращает имя бота, под которым он авторизован.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Send отправляет пользователю сообщение, при необходимости с одной
// inline-кнопкой (URL или callback).
func (c *Client) Send(ctx context.Context, userID int64, text string, button *models.Button) error {
	const op = "telegram.Send"

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if button != nil {
		var b tgbotapi.InlineKeyboardButton
		if button.URL != "" {
			b = tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL)
		} else {
			b = tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(b))
	}

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateInviteLink создает одноразовую пригласительную ссылку в канал
// (member_limit = 1): по ней сможет вступить ровно один пользователь.
func (c *Client) CreateInviteLink(ctx context.Context, channelID int64) (string, error) {
	const op = "telegram.CreateInviteLink"

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: channelID},
		MemberLimit: 1,
	}
	resp, err := c.bot.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link.InviteLink, nil
}

// SetCommands регистрирует команды бота в меню Telegram.
func (c *Client) SetCommands() error {
	const op = "telegram.SetCommands"

	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Начать работу с ботом"},
		tgbotapi.BotCommand{Command: "buy", Description: "Купить подписку"},
	)
	if _, err := c.bot.Request(cfg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Updates возвращает канал входящих обновлений long polling.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.bot.GetUpdatesChan(u)
}

// AckCallback подтверждает получение callback-запроса, чтобы у
// пользователя пропали "часики" на кнопке.
func (c *Client) AckCallback(callbackID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		c.log.Warn("failed to ack callback", slog.String("callback_id", callbackID), slog.Any("err", err))
	}
}
