// Package bot implements the Telegram command surface and outbound sends.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flat_bot/internal/config"
	"flat_bot/internal/model"
	"flat_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JobScheduler starts and stops the recurring notification jobs.
type JobScheduler interface {
	Schedule(ctx context.Context, sub model.Subscription)
	Cancel(chatID int64)
}

// Bot is the Telegram bot that handles registrations and sends notifications.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	sched  JobScheduler
	cfg    *config.Config
	client httpDoer
	log    *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
// The scheduler is attached afterwards with SetScheduler.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:    api,
		store:  store,
		cfg:    cfg,
		client: http.DefaultClient,
		log:    log,
	}, nil
}

// SetScheduler wires the job scheduler in. The bot sends notifications on
// the scheduler's behalf, so the two are constructed in two steps.
func (b *Bot) SetScheduler(sched JobScheduler) {
	b.sched = sched
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat. The error is
// surfaced so a failing send aborts the notification tick it belongs to.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	_ = b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID, args)
	case "help":
		b.handleHelp(chatID)
	case "stop":
		b.handleStop(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
