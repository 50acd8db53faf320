package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"keyword_bot/internal/config"
	"keyword_bot/internal/model"
	"keyword_bot/internal/storage"
)

// pollTimeout is the long polling timeout of getUpdates, in seconds.
const pollTimeout = 60

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and sends notifications.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	cfg     *config.Config
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
// Outgoing messages are limited to cfg.SendRate per second.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := newAPI(token, tgbotapi.APIEndpoint, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newBot(api, store, cfg, log), nil
}

// newAPI connects to the Bot API. Telegram holds getUpdates open for up to
// pollTimeout seconds, so the client timeout is requestTimeout on top of that.
func newAPI(token, endpoint string, requestTimeout time.Duration) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: requestTimeout + pollTimeout*time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func newBot(api telegramAPI, store storage.Storage, cfg *config.Config, log *slog.Logger) *Bot {
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	return &Bot{
		api:     api,
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.log.Warn("delete webhook", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = allowedUpdates

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// Send delivers a plain text message to a user, waiting for the send limiter.
func (b *Bot) Send(ctx context.Context, userID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send limiter: %w", err)
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", userID, err)
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.Send(ctx, chatID, text); err != nil {
		b.log.Error("reply", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyWithKeyboard(ctx context.Context, chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if err := b.limiter.Wait(ctx); err != nil {
		b.log.Error("reply", "chat_id", chatID, "error", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("reply", "chat_id", chatID, "error", err)
	}
}

// request identifies who an update came from and how to answer.
type request struct {
	chatID int64
	userID int64
	lang   model.Lang
}

func (b *Bot) newRequest(ctx context.Context, chatID, userID int64) request {
	lang, err := b.store.GetLang(ctx, userID)
	if err != nil {
		b.log.Error("get language", "user_id", userID, "error", err)
		lang = model.LangEN
	}
	return request{chatID: chatID, userID: userID, lang: lang}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(ctx, msg.Chat.ID, tr(model.LangEN, msgDenied))
		return
	}

	req := b.newRequest(ctx, msg.Chat.ID, msg.From.ID)
	if msg.IsCommand() {
		b.handleCommand(ctx, req, msg)
		return
	}
	b.handleText(ctx, req, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, req request, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	b.log.Debug("command", "cmd", cmd, "args", args, "user_id", req.userID)

	switch cmd {
	case "start":
		b.handleStart(ctx, req)
	case "help":
		b.handleHelp(ctx, req)
	case "add":
		b.handleAdd(ctx, req, args)
	case "remove", "delete":
		b.handleRemove(ctx, req, args)
	case "list":
		b.handleList(ctx, req)
	case "clear":
		b.handleClear(ctx, req)
	case "lang":
		b.handleLang(ctx, req, args)
	case "stats":
		b.handleStats(ctx, req)
	case "cancel":
		b.handleCancel(ctx, req)
	default:
		b.reply(ctx, req.chatID, tr(req.lang, msgUnknown))
	}
}
