package fetcher

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanTitle strips markup from a feed title and collapses whitespace.
func CleanTitle(s string) string {
	return collapse(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// PlainText extracts the readable text of an HTML fragment.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
