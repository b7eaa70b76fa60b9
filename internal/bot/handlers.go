package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flat_bot/internal/model"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64, args string) {
	registered, err := b.store.IsRegistered(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if registered {
		b.log.Info("duplicate registration attempt", "chat_id", chatID)
		b.reply(chatID, "You are already registered.")
		return
	}

	fields := strings.Fields(args)
	perUser := b.cfg.PerUserCrawler()

	if perUser && len(fields) != 1 {
		b.reply(chatID, "You need to pass exactly one argument, the url of the search page.")
		return
	}
	if !perUser && len(fields) != 0 {
		b.reply(chatID, "Wrong argument count: /start takes no arguments, the search page is fixed.")
		return
	}

	var userURL string
	if perUser {
		userURL = fields[0]
		if !b.urlReachable(ctx, userURL) {
			b.log.Info("registration url not reachable", "chat_id", chatID, "url", userURL)
			b.reply(chatID, "The url you provided is not reachable.")
			return
		}
	}

	for _, cc := range b.cfg.Crawlers {
		url := cc.URL
		if cc.PerUser {
			url = userURL
		}
		sub := model.Subscription{ChatID: chatID, Crawler: cc.Name, URL: url}
		if err := b.store.CreateSubscription(ctx, &sub); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to register: %v", err))
			return
		}
		if err := b.store.ReplaceSeenIDs(ctx, cc.Name, chatID, nil); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to register: %v", err))
			return
		}
		b.sched.Schedule(ctx, sub)
	}

	b.log.Info("new registration", "chat_id", chatID)
	b.reply(chatID, "You successfully registered for the flat notifier. New listings will be sent to you as they appear.")
}

func (b *Bot) handleHelp(chatID int64) {
	if b.cfg.PerUserCrawler() {
		b.reply(chatID, `Register with /start <url>, where url is the search page with your filters applied.
To change filters, adjust them on the site and re-register with the new url after /stop.
Unsubscribe with /stop.`)
		return
	}
	b.reply(chatID, `Register with /start to get notified about new listings on the configured search page.
Unsubscribe with /stop.`)
}

// urlReachable verifies a subscription URL answers a plain GET with 200
// before it is accepted.
func (b *Bot) urlReachable(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode == http.StatusOK
}
