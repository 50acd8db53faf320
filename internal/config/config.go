// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Supported feed source names for FEED_SOURCES.
const (
	SourceGDELT      = "gdelt"
	SourceGoogleNews = "googlenews"
	SourceRSS        = "rss"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	AdminChatID      int64

	PollInterval   time.Duration
	FetchLimit     int
	RequestTimeout time.Duration
	SeenCap        int

	FeedSources []string
	FeedsFile   string
	NewsLang    string
	NewsRegion  string

	SendRate   float64
	HTTPAddr   string
	WebhookURL string

	// WebhookSecret is the secret_token Telegram echoes on every webhook
	// request. A random one is used when empty.
	WebhookSecret string
}

var webhookSecretRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg := &Config{
		TelegramBotToken: token,
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		FeedsFile:        envOrDefault("FEEDS_FILE", "./feeds.yaml"),
		NewsLang:         envOrDefault("NEWS_LANG", "en-US"),
		NewsRegion:       envOrDefault("NEWS_REGION", "US"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":10000"),
		WebhookURL:       strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		WebhookSecret:    strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	var err error
	if cfg.AllowedUsers, err = parseIDs("ALLOWED_USERS"); err != nil {
		return nil, err
	}
	if cfg.AdminChatID, err = parseInt64("ADMIN_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = parseDuration("POLL_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", 25*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchLimit, err = parseInt("FETCH_LIMIT", 15); err != nil {
		return nil, err
	}
	if cfg.SeenCap, err = parseInt("SEEN_CAP", 8000); err != nil {
		return nil, err
	}
	if cfg.SendRate, err = parseFloat("SEND_RATE", 20); err != nil {
		return nil, err
	}
	cfg.FeedSources = parseList(envOrDefault("FEED_SOURCES", SourceGDELT+","+SourceGoogleNews))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the values are consistent with each other.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive"))
	}
	if c.FetchLimit <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_LIMIT must be positive"))
	}
	if c.SendRate <= 0 {
		errs = append(errs, fmt.Errorf("SEND_RATE must be positive"))
	}
	// A prune pass keeps SeenCap - SeenCap/10 rows, which must hold a full batch.
	if keep := c.SeenCap - c.SeenCap/10; keep < c.FetchLimit {
		errs = append(errs, fmt.Errorf("SEEN_CAP %d too small for FETCH_LIMIT %d", c.SeenCap, c.FetchLimit))
	}
	if c.WebhookSecret != "" && !webhookSecretRe.MatchString(c.WebhookSecret) {
		errs = append(errs, fmt.Errorf("WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ and -"))
	}
	if len(c.FeedSources) == 0 {
		errs = append(errs, fmt.Errorf("FEED_SOURCES is empty"))
	}
	for _, s := range c.FeedSources {
		if !slices.Contains([]string{SourceGDELT, SourceGoogleNews, SourceRSS}, s) {
			errs = append(errs, fmt.Errorf("unknown feed source %q in FEED_SOURCES", s))
		}
	}
	return errors.Join(errs...)
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

// UsesSource reports whether the named feed source is enabled.
func (c *Config) UsesSource(name string) bool {
	return slices.Contains(c.FeedSources, name)
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseIDs(key string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(os.Getenv(key), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in %s: %w", s, key, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

func parseInt64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	v, err := parseInt64(key, int64(def))
	return int(v), err
}

func parseFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
