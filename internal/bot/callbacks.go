package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	registered, err := b.store.IsRegistered(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !registered {
		b.reply(chatID, "You are not registered.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Unsubscribe and forget which listings you have seen?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, unsubscribe", "stop"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send stop confirmation", "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	b.log.Info("callback",
		"action", cb.Data,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch cb.Data {
	case "stop":
		b.sched.Cancel(chatID)
		if err := b.store.DeleteSubscriptions(ctx, chatID); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, "You are unsubscribed. Send /start to register again.")
	case "noop":
		// Ack already sent, nothing to do.
	}
}
