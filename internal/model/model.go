// Package model defines the domain types used across the application.
package model

import "time"

// Subscription is a keyword watched by a user.
type Subscription struct {
	UserID    int64
	Keyword   string
	CreatedAt time.Time
}

// Item is a single entry returned by a feed source.
type Item struct {
	Title       string
	Link        string
	Description string
	Source      string
	PublishedAt *time.Time
}

// Lang is a user interface language.
type Lang string

// Supported languages.
const (
	LangEN Lang = "en"
	LangFA Lang = "fa"
)

// ParseLang returns the language for code and whether it is supported.
func ParseLang(code string) (Lang, bool) {
	switch Lang(code) {
	case LangEN, LangFA:
		return Lang(code), true
	}
	return LangEN, false
}

// State is the pending menu action of a user.
type State string

// Menu states. StateIdle means the next plain message is ignored.
const (
	StateIdle        State = ""
	StateAwaitAdd    State = "await_add"
	StateAwaitRemove State = "await_remove"
)
