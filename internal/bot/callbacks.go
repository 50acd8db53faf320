package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keyword_bot/internal/model"
)

// Callback data of the inline keyboards.
const (
	cbMenuAdd    = "menu:add"
	cbMenuList   = "menu:list"
	cbMenuRemove = "menu:remove"
	cbMenuClear  = "menu:clear"
	cbClearYes   = "clear:yes"
	cbClearNo    = "clear:no"
	cbLangEN     = "lang:en"
	cbLangFA     = "lang:fa"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil || cb.From == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(ctx, chatID, tr(model.LangEN, msgDenied))
		return
	}

	b.log.Info("callback",
		"data", cb.Data,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	req := b.newRequest(ctx, chatID, cb.From.ID)
	switch cb.Data {
	case cbMenuAdd:
		b.setState(ctx, req, model.StateAwaitAdd)
		b.reply(ctx, chatID, tr(req.lang, msgAskAdd))
	case cbMenuList:
		b.handleList(ctx, req)
	case cbMenuRemove:
		b.promptRemove(ctx, req)
	case cbMenuClear:
		b.handleClear(ctx, req)
	case cbClearYes:
		b.clearKeywords(ctx, req)
	case cbClearNo:
		b.reply(ctx, chatID, tr(req.lang, msgCancelled))
	case cbLangEN:
		b.setLang(ctx, req, model.LangEN)
	case cbLangFA:
		b.setLang(ctx, req, model.LangFA)
	}
}

func (b *Bot) promptRemove(ctx context.Context, req request) {
	keywords, err := b.store.ListKeywords(ctx, req.userID)
	if err != nil {
		b.log.Error("list keywords", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	if len(keywords) == 0 {
		b.reply(ctx, req.chatID, tr(req.lang, msgListEmpty))
		return
	}
	b.setState(ctx, req, model.StateAwaitRemove)
	b.reply(ctx, req.chatID, FormatKeywordList(req.lang, keywords)+"\n\n"+tr(req.lang, msgAskRemove))
}
