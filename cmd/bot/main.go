package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"flat_bot/internal/bot"
	"flat_bot/internal/config"
	"flat_bot/internal/crawler"
	"flat_bot/internal/filter"
	"flat_bot/internal/scheduler"
	"flat_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, newCrawlers(cfg), filter.Policy{MaxPrice: cfg.MaxPrice}, b, log)
	sched.SetInterval(time.Duration(cfg.CheckInterval) * time.Second)
	sched.SetRetryAttempts(cfg.RetryAttempts)
	b.SetScheduler(sched)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot")

	if err := sched.Start(ctx); err != nil {
		log.Error("reschedule subscriptions", "error", err)
		os.Exit(1)
	}

	b.Run(ctx)
	sched.Wait()

	log.Info("bot stopped")
}

// newCrawlers builds the active extractor instances from configuration.
func newCrawlers(cfg *config.Config) []crawler.Crawler {
	var crawlers []crawler.Crawler
	for _, cc := range cfg.Crawlers {
		switch cc.Name {
		case "wg_gesucht":
			crawlers = append(crawlers, crawler.NewWGGesucht(http.DefaultClient))
		case "kleinanzeigen":
			crawlers = append(crawlers, crawler.NewKleinanzeigen(http.DefaultClient, cc.OnlyToday))
		}
	}
	return crawlers
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
