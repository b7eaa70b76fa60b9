// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// CrawlerConfig describes one active listing source.
type CrawlerConfig struct {
	Name      string
	URL       string // fixed search-page URL; empty for per-recipient URLs
	PerUser   bool   // recipients supply their own URL at registration
	OnlyToday bool   // drop listings not posted today
}

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	Crawlers         []CrawlerConfig
	MaxPrice         int // 0 disables the price cap
	CheckInterval    int // seconds between ticks for one subscription
	RetryAttempts    uint
}

// Load reads configuration from the environment, honoring a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	onlyToday, err := boolEnv("ONLY_TODAY")
	if err != nil {
		return nil, err
	}

	var crawlers []CrawlerConfig
	wgEnabled, err := boolEnv("WG_GESUCHT_ENABLED")
	if err != nil {
		return nil, err
	}
	if wgEnabled {
		crawlers = append(crawlers, CrawlerConfig{Name: "wg_gesucht", PerUser: true})
	}
	if url := os.Getenv("KLEINANZEIGEN_URL"); url != "" {
		crawlers = append(crawlers, CrawlerConfig{
			Name:      "kleinanzeigen",
			URL:       url,
			OnlyToday: onlyToday,
		})
	}
	if len(crawlers) == 0 {
		return nil, fmt.Errorf("no crawler enabled: set WG_GESUCHT_ENABLED or KLEINANZEIGEN_URL")
	}

	maxPrice, err := intEnv("MAX_PRICE", 0)
	if err != nil {
		return nil, err
	}
	if maxPrice < 0 {
		return nil, fmt.Errorf("MAX_PRICE must not be negative")
	}

	interval, err := intEnv("CHECK_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if interval < 1 {
		return nil, fmt.Errorf("CHECK_INTERVAL_SECONDS must be at least 1")
	}

	attempts, err := intEnv("RETRY_ATTEMPTS", 2)
	if err != nil {
		return nil, err
	}
	if attempts < 1 {
		return nil, fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		Crawlers:         crawlers,
		MaxPrice:         maxPrice,
		CheckInterval:    interval,
		RetryAttempts:    uint(attempts),
	}, nil
}

// PerUserCrawler reports whether any active crawler takes a per-recipient
// URL, which decides the expected /start argument count.
func (c *Config) PerUserCrawler() bool {
	for _, cc := range c.Crawlers {
		if cc.PerUser {
			return true
		}
	}
	return false
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func boolEnv(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
