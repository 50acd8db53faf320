package bot

import (
	"fmt"
	"strings"

	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/model"
)

const (
	maxMessageLength     = 4000
	maxDescriptionLength = 300
)

// FormatNotification formats a feed item matched by keyword as a Telegram message.
func FormatNotification(keyword string, item model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 %s\n\n", keyword)
	if item.Title != "" {
		b.WriteString(item.Title)
	}
	if d := item.Description; d != "" && d != item.Title && !strings.HasPrefix(d, item.Title+" ") {
		b.WriteString("\n\n")
		b.WriteString(fetcher.Truncate(d, maxDescriptionLength))
	}
	if item.PublishedAt != nil {
		fmt.Fprintf(&b, "\n%s", item.PublishedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if item.Link != "" {
		b.WriteString("\n\n")
		b.WriteString(item.Link)
	}
	return fetcher.Truncate(strings.TrimSpace(b.String()), maxMessageLength)
}

// FormatKeywordList formats the keywords of a user for display.
func FormatKeywordList(lang model.Lang, keywords []string) string {
	if len(keywords) == 0 {
		return tr(lang, msgListEmpty)
	}
	var b strings.Builder
	b.WriteString(tr(lang, msgListHeader))
	b.WriteString("\n")
	for i, kw := range keywords {
		fmt.Fprintf(&b, "\n%d. %s", i+1, kw)
	}
	return b.String()
}
