package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is the path Telegram posts updates to.
const WebhookPath = "/telegram"

// SecretTokenHeader carries the webhook secret on requests from Telegram.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var allowedUpdates = []string{"message", "callback_query"}

// HandleWebhook decodes one update posted by Telegram and handles it.
func (b *Bot) HandleWebhook(ctx context.Context, body io.Reader) error {
	var update tgbotapi.Update
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	b.handleUpdate(ctx, update)
	return nil
}

// SetWebhook registers baseURL + WebhookPath as the bot's webhook. Telegram
// sends secret back in the SecretTokenHeader of every update.
func (b *Bot) SetWebhook(baseURL, secret string) error {
	params := make(tgbotapi.Params)
	params["url"] = strings.TrimRight(baseURL, "/") + WebhookPath
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}
