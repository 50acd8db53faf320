package bot

import (
	"fmt"

	"keyword_bot/internal/model"
)

type textKey int

const (
	msgWelcome textKey = iota
	msgHelp
	msgDenied
	msgUnknown
	msgFailed
	msgUseMenu
	msgBtnAdd
	msgBtnList
	msgBtnRemove
	msgBtnClear
	msgBtnYes
	msgBtnNo
	msgAskAdd
	msgAskRemove
	msgUsageAdd
	msgUsageRemove
	msgAdded
	msgExists
	msgRemoved
	msgNotWatching
	msgEmptyKeyword
	msgKeywordTooLong
	msgInvalidKeyword
	msgNoSearchTerm
	msgListHeader
	msgListEmpty
	msgClearConfirm
	msgCleared
	msgCancelled
	msgLangUsage
	msgLangSet
	msgStats
)

var texts = map[model.Lang]map[textKey]string{
	model.LangEN: {
		msgWelcome: "Hi! I watch news feeds for your keywords and message you when something new appears.\n\n" +
			"Use the buttons below or /help for commands.",
		msgHelp: `Commands:
/add <keyword> - watch a keyword
/remove <keyword> - stop watching a keyword
/list - show your keywords
/clear - delete all keywords
/lang en|fa - change language
/stats - show your counters
/cancel - cancel the pending action

Keyword syntax:
word - must contain the word
"a phrase" - must contain the phrase
-word - must not contain the word
/regex/ - must match the regular expression
title:word - match the title only`,
		msgDenied:         "Access denied.",
		msgUnknown:        "Unknown command. Use /help for a list of commands.",
		msgFailed:         "Something went wrong, please try again later.",
		msgUseMenu:        "Use /start to open the menu or /help for commands.",
		msgBtnAdd:         "Add",
		msgBtnList:        "List",
		msgBtnRemove:      "Delete",
		msgBtnClear:       "Delete all",
		msgBtnYes:         "Yes, delete all",
		msgBtnNo:          "Cancel",
		msgAskAdd:         "Send the keyword to watch.",
		msgAskRemove:      "Send the keyword to remove.",
		msgUsageAdd:       "Usage: /add <keyword>",
		msgUsageRemove:    "Usage: /remove <keyword>",
		msgAdded:          "Added: %s",
		msgExists:         "Already watching: %s",
		msgRemoved:        "Removed: %s",
		msgNotWatching:    "Not watching: %s",
		msgEmptyKeyword:   "Keyword cannot be empty.",
		msgKeywordTooLong: "Keyword is too long (max %d characters).",
		msgInvalidKeyword: "Invalid keyword: %v",
		msgNoSearchTerm:   "Keyword needs at least one plain word or \"phrase\" to search for.",
		msgListHeader:     "Your keywords:",
		msgListEmpty:      "You have no keywords yet. Use /add <keyword>.",
		msgClearConfirm:   "Delete all %d keywords? This cannot be undone.",
		msgCleared:        "Deleted %d keyword(s).",
		msgCancelled:      "Cancelled.",
		msgLangUsage:      "Usage: /lang en|fa",
		msgLangSet:        "Language set to English.",
		msgStats:          "Keywords: %d\nSeen items: %d",
	},
	model.LangFA: {
		msgWelcome: "سلام! من خبرها را برای کلمه‌های کلیدی شما دنبال می‌کنم و هر مورد تازه را برایتان می‌فرستم.\n\n" +
			"از دکمه‌های زیر یا /help استفاده کنید.",
		msgHelp: `دستورها:
/add <کلمه> - افزودن کلمه کلیدی
/remove <کلمه> - حذف کلمه کلیدی
/list - نمایش کلمه‌ها
/clear - حذف همه کلمه‌ها
/lang en|fa - تغییر زبان
/stats - آمار شما
/cancel - لغو عملیات

نگارش کلمه کلیدی:
word - باید شامل کلمه باشد
"a phrase" - باید شامل عبارت باشد
-word - نباید شامل کلمه باشد
/regex/ - باید با عبارت منظم جور باشد
title:word - فقط در عنوان`,
		msgDenied:         "دسترسی ندارید.",
		msgUnknown:        "دستور ناشناخته است. برای فهرست دستورها /help را بزنید.",
		msgFailed:         "مشکلی پیش آمد، لطفاً بعداً دوباره امتحان کنید.",
		msgUseMenu:        "برای باز کردن منو /start و برای راهنما /help را بزنید.",
		msgBtnAdd:         "افزودن",
		msgBtnList:        "لیست",
		msgBtnRemove:      "حذف",
		msgBtnClear:       "حذف همه",
		msgBtnYes:         "بله، همه حذف شوند",
		msgBtnNo:          "لغو",
		msgAskAdd:         "کلمه کلیدی را بفرستید.",
		msgAskRemove:      "کلمه‌ای که باید حذف شود را بفرستید.",
		msgUsageAdd:       "مثال: /add sushi",
		msgUsageRemove:    "مثال: /remove sushi",
		msgAdded:          "اضافه شد: %s",
		msgExists:         "از قبل وجود دارد: %s",
		msgRemoved:        "حذف شد: %s",
		msgNotWatching:    "در لیست نیست: %s",
		msgEmptyKeyword:   "کلمه کلیدی نمی‌تواند خالی باشد.",
		msgKeywordTooLong: "کلمه کلیدی خیلی طولانی است (حداکثر %d نویسه).",
		msgInvalidKeyword: "کلمه کلیدی نامعتبر است: %v",
		msgNoSearchTerm:   "کلمه کلیدی باید دست‌کم یک واژه یا \"عبارت\" ساده برای جستجو داشته باشد.",
		msgListHeader:     "کلمه‌های شما:",
		msgListEmpty:      "هنوز کلمه‌ای ندارید. از /add <کلمه> استفاده کنید.",
		msgClearConfirm:   "همه %d کلمه حذف شوند؟ این کار برگشت‌پذیر نیست.",
		msgCleared:        "%d کلمه حذف شد.",
		msgCancelled:      "لغو شد.",
		msgLangUsage:      "مثال: /lang en|fa",
		msgLangSet:        "زبان روی فارسی تنظیم شد.",
		msgStats:          "کلمه‌ها: %d\nموارد دیده‌شده: %d",
	},
}

// tr returns the text for key in lang, falling back to English.
func tr(lang model.Lang, key textKey, args ...any) string {
	s, ok := texts[lang][key]
	if !ok {
		s = texts[model.LangEN][key]
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}
