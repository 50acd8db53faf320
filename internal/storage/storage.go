// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"keyword_bot/internal/model"
)

// DefaultSeenCap is the number of seen items kept per user when no cap is configured.
const DefaultSeenCap = 8000

// Storage is the interface for all persistence operations.
type Storage interface {
	AddKeyword(ctx context.Context, userID int64, keyword string) (bool, error)
	RemoveKeyword(ctx context.Context, userID int64, keyword string) (bool, error)
	ClearKeywords(ctx context.Context, userID int64) (int, error)
	ListKeywords(ctx context.Context, userID int64) ([]string, error)
	ListAllSubscriptions(ctx context.Context) ([]model.Subscription, error)

	HasSeen(ctx context.Context, userID int64, keyword, link string) (bool, error)
	MarkSeen(ctx context.Context, userID int64, keyword, link string) error
	CountSeen(ctx context.Context, userID int64) (int, error)

	GetLang(ctx context.Context, userID int64) (model.Lang, error)
	SetLang(ctx context.Context, userID int64, lang model.Lang) error
	GetState(ctx context.Context, userID int64) (model.State, error)
	SetState(ctx context.Context, userID int64, state model.State) error

	Close() error
}
