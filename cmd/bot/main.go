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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"keyword_bot/internal/bot"
	"keyword_bot/internal/config"
	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/scheduler"
	"keyword_bot/internal/server"
	"keyword_bot/internal/source"
	"keyword_bot/internal/storage"
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

	store, err := storage.NewSQLite(cfg.DatabasePath, cfg.SeenCap)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	src, err := newSource(cfg, log)
	if err != nil {
		log.Error("create feed source", "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, src, b, log, scheduler.Options{
		Interval:       cfg.PollInterval,
		FetchLimit:     cfg.FetchLimit,
		RequestTimeout: cfg.RequestTimeout,
		AdminChatID:    cfg.AdminChatID,
	})

	wh := server.Webhook{Path: bot.WebhookPath, SecretHeader: bot.SecretTokenHeader}
	if cfg.WebhookURL != "" {
		wh.Secret = cfg.WebhookSecret
		if wh.Secret == "" {
			wh.Secret = uuid.NewString()
		}
		if err := b.SetWebhook(cfg.WebhookURL, wh.Secret); err != nil {
			log.Error("set webhook", "url", cfg.WebhookURL, "error", err)
			os.Exit(1)
		}
		wh.Handler = b
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg.HTTPAddr, wh, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot",
		"sources", strings.Join(cfg.FeedSources, ","),
		"interval", cfg.PollInterval,
		"webhook", cfg.WebhookURL != "",
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})
	if wh.Handler == nil {
		g.Go(func() error {
			b.Run(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}

func newSource(cfg *config.Config, log *slog.Logger) (source.Source, error) {
	f := fetcher.New(&http.Client{Timeout: cfg.RequestTimeout})
	f.SetHostInterval(time.Second)

	var sources []source.Source
	for _, name := range cfg.FeedSources {
		switch name {
		case config.SourceGDELT:
			sources = append(sources, source.NewGDELT(f))
		case config.SourceGoogleNews:
			sources = append(sources, source.NewGoogleNews(f, cfg.NewsLang, cfg.NewsRegion))
		case config.SourceRSS:
			feeds, err := source.LoadFeeds(cfg.FeedsFile)
			if err != nil {
				return nil, err
			}
			sources = append(sources, source.NewRSS(f, feeds, cfg.PollInterval/2))
		}
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return source.NewMulti(log, sources...), nil
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
