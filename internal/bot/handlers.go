package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keyword_bot/internal/config"
	"keyword_bot/internal/model"
)

func menuKeyboard(lang model.Lang) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tr(lang, msgBtnAdd), cbMenuAdd),
			tgbotapi.NewInlineKeyboardButtonData(tr(lang, msgBtnList), cbMenuList),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tr(lang, msgBtnRemove), cbMenuRemove),
			tgbotapi.NewInlineKeyboardButtonData(tr(lang, msgBtnClear), cbMenuClear),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", cbLangEN),
			tgbotapi.NewInlineKeyboardButtonData("فارسی", cbLangFA),
		),
	)
}

func (b *Bot) handleStart(ctx context.Context, req request) {
	b.setState(ctx, req, model.StateIdle)
	b.replyWithKeyboard(ctx, req.chatID, tr(req.lang, msgWelcome), menuKeyboard(req.lang))
}

func (b *Bot) handleHelp(ctx context.Context, req request) {
	b.reply(ctx, req.chatID, tr(req.lang, msgHelp))
}

func (b *Bot) handleAdd(ctx context.Context, req request, args string) {
	if args == "" {
		b.reply(ctx, req.chatID, tr(req.lang, msgUsageAdd))
		return
	}
	b.addKeyword(ctx, req, args)
}

func (b *Bot) addKeyword(ctx context.Context, req request, input string) {
	kw, err := ParseKeyword(input, b.searchesRemotely())
	if err != nil {
		b.reply(ctx, req.chatID, keywordError(req.lang, err))
		return
	}

	created, err := b.store.AddKeyword(ctx, req.userID, kw)
	if err != nil {
		b.log.Error("add keyword", "user_id", req.userID, "keyword", kw, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	if !created {
		b.reply(ctx, req.chatID, tr(req.lang, msgExists, kw))
		return
	}
	b.log.Info("keyword added", "user_id", req.userID, "keyword", kw)
	b.reply(ctx, req.chatID, tr(req.lang, msgAdded, kw))
}

// searchesRemotely reports whether keywords are sent to a news search engine.
func (b *Bot) searchesRemotely() bool {
	return b.cfg.UsesSource(config.SourceGDELT) || b.cfg.UsesSource(config.SourceGoogleNews)
}

func (b *Bot) handleRemove(ctx context.Context, req request, args string) {
	if args == "" {
		b.reply(ctx, req.chatID, tr(req.lang, msgUsageRemove))
		return
	}
	b.removeKeyword(ctx, req, args)
}

func (b *Bot) removeKeyword(ctx context.Context, req request, input string) {
	kw, err := ParseKeyword(input, false)
	if err != nil {
		b.reply(ctx, req.chatID, keywordError(req.lang, err))
		return
	}

	removed, err := b.store.RemoveKeyword(ctx, req.userID, kw)
	if err != nil {
		b.log.Error("remove keyword", "user_id", req.userID, "keyword", kw, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	if !removed {
		b.reply(ctx, req.chatID, tr(req.lang, msgNotWatching, kw))
		return
	}
	b.log.Info("keyword removed", "user_id", req.userID, "keyword", kw)
	b.reply(ctx, req.chatID, tr(req.lang, msgRemoved, kw))
}

func (b *Bot) handleList(ctx context.Context, req request) {
	keywords, err := b.store.ListKeywords(ctx, req.userID)
	if err != nil {
		b.log.Error("list keywords", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	b.reply(ctx, req.chatID, FormatKeywordList(req.lang, keywords))
}

func (b *Bot) handleClear(ctx context.Context, req request) {
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

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tr(req.lang, msgBtnYes), cbClearYes),
			tgbotapi.NewInlineKeyboardButtonData(tr(req.lang, msgBtnNo), cbClearNo),
		),
	)
	b.replyWithKeyboard(ctx, req.chatID, tr(req.lang, msgClearConfirm, len(keywords)), kb)
}

func (b *Bot) clearKeywords(ctx context.Context, req request) {
	n, err := b.store.ClearKeywords(ctx, req.userID)
	if err != nil {
		b.log.Error("clear keywords", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	b.log.Info("keywords cleared", "user_id", req.userID, "count", n)
	b.reply(ctx, req.chatID, tr(req.lang, msgCleared, n))
}

func (b *Bot) handleLang(ctx context.Context, req request, args string) {
	lang, err := ParseLangArg(args)
	if err != nil {
		b.reply(ctx, req.chatID, tr(req.lang, msgLangUsage))
		return
	}
	b.setLang(ctx, req, lang)
}

func (b *Bot) setLang(ctx context.Context, req request, lang model.Lang) {
	if err := b.store.SetLang(ctx, req.userID, lang); err != nil {
		b.log.Error("set language", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	b.reply(ctx, req.chatID, tr(lang, msgLangSet))
}

func (b *Bot) handleStats(ctx context.Context, req request) {
	keywords, err := b.store.ListKeywords(ctx, req.userID)
	if err != nil {
		b.log.Error("list keywords", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	seen, err := b.store.CountSeen(ctx, req.userID)
	if err != nil {
		b.log.Error("count seen", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}
	b.reply(ctx, req.chatID, tr(req.lang, msgStats, len(keywords), seen))
}

func (b *Bot) handleCancel(ctx context.Context, req request) {
	b.setState(ctx, req, model.StateIdle)
	b.reply(ctx, req.chatID, tr(req.lang, msgCancelled))
}

// handleText consumes a plain message as the answer to a pending menu action.
func (b *Bot) handleText(ctx context.Context, req request, text string) {
	state, err := b.store.GetState(ctx, req.userID)
	if err != nil {
		b.log.Error("get state", "user_id", req.userID, "error", err)
		b.reply(ctx, req.chatID, tr(req.lang, msgFailed))
		return
	}

	switch state {
	case model.StateAwaitAdd:
		b.setState(ctx, req, model.StateIdle)
		b.addKeyword(ctx, req, text)
	case model.StateAwaitRemove:
		b.setState(ctx, req, model.StateIdle)
		b.removeKeyword(ctx, req, text)
	default:
		b.reply(ctx, req.chatID, tr(req.lang, msgUseMenu))
	}
}

func (b *Bot) setState(ctx context.Context, req request, state model.State) {
	if err := b.store.SetState(ctx, req.userID, state); err != nil {
		b.log.Error("set state", "user_id", req.userID, "state", state, "error", err)
	}
}
