// Package scheduler runs the poll-and-notify loop: every interval it fetches
// items for each (user, keyword) subscription and delivers the unseen ones.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"keyword_bot/internal/bot"
	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/metrics"
	"keyword_bot/internal/model"
	"keyword_bot/internal/source"
	"keyword_bot/internal/storage"
)

// Failure kinds reported in logs, metrics and the operator summary.
const (
	KindNetwork = "network"
	KindParse   = "parse"
	KindStorage = "storage"
	KindSend    = "send"
)

// maxReportLines bounds the operator summary of a cycle.
const maxReportLines = 10

// Notifier delivers a text message to a Telegram user.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Options configures a Scheduler. Zero values fall back to defaults.
type Options struct {
	Interval       time.Duration
	FetchLimit     int
	RequestTimeout time.Duration
	// AdminChatID receives the startup notice and cycle failure summaries.
	// Zero disables operator reports.
	AdminChatID int64
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 10 * time.Minute
	}
	if o.FetchLimit <= 0 {
		o.FetchLimit = 15
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 25 * time.Second
	}
	return o
}

// Failure describes one abandoned (user, keyword) pair.
type Failure struct {
	UserID  int64
	Keyword string
	Kind    string
	Err     error
}

// CycleStats summarizes one polling cycle.
type CycleStats struct {
	Pairs    int
	Fetches  int
	Sent     int
	Skipped  int
	Failures []Failure
}

// Scheduler periodically polls the feed source for every subscription.
type Scheduler struct {
	store    storage.Storage
	source   source.Source
	notifier Notifier
	log      *slog.Logger
	opts     Options
}

// New creates a Scheduler.
func New(store storage.Storage, src source.Source, notifier Notifier, log *slog.Logger, opts Options) *Scheduler {
	return &Scheduler{
		store:    store,
		source:   src,
		notifier: notifier,
		log:      log,
		opts:     opts.withDefaults(),
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
// The first cycle runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.notifyOperator(ctx, fmt.Sprintf("Keyword bot started. Polling %s every %s.", s.source.Name(), s.opts.Interval))

	s.runCycle(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	stats := s.RunCycle(ctx)

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	level := slog.LevelDebug
	if stats.Sent > 0 || len(stats.Failures) > 0 {
		level = slog.LevelInfo
	}
	s.log.Log(ctx, level, "cycle finished",
		"pairs", stats.Pairs,
		"fetches", stats.Fetches,
		"sent", stats.Sent,
		"skipped", stats.Skipped,
		"failures", len(stats.Failures),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if len(stats.Failures) > 0 && ctx.Err() == nil {
		s.notifyOperator(ctx, FormatReport(stats))
	}
}

type fetchResult struct {
	items []model.Item
	err   error
}

// RunCycle performs one pass over all subscriptions. A failing pair is
// logged and skipped; the cycle always continues with the next pair.
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	var stats CycleStats

	subs, err := s.store.ListAllSubscriptions(ctx)
	if err != nil {
		s.log.Error("list subscriptions", "kind", KindStorage, "error", err)
		metrics.RecordError(KindStorage)
		stats.Failures = append(stats.Failures, Failure{Kind: KindStorage, Err: err})
		return stats
	}

	results := make(map[string]fetchResult)
	for _, sub := range subs {
		if ctx.Err() != nil {
			return stats
		}
		stats.Pairs++
		s.processPair(ctx, sub, results, &stats)
	}
	return stats
}

func (s *Scheduler) processPair(ctx context.Context, sub model.Subscription, results map[string]fetchResult, stats *CycleStats) {
	res, ok := results[sub.Keyword]
	if !ok {
		res.items, res.err = s.fetch(ctx, sub.Keyword)
		results[sub.Keyword] = res
		stats.Fetches++
	}
	if res.err != nil {
		s.fail(stats, sub, fetchKind(res.err), res.err)
		return
	}

	sent := 0
	for _, item := range res.items {
		if item.Link == "" {
			continue
		}

		seen, err := s.store.HasSeen(ctx, sub.UserID, sub.Keyword, item.Link)
		if err != nil {
			s.fail(stats, sub, KindStorage, err)
			return
		}
		if seen {
			stats.Skipped++
			continue
		}

		err = s.notifier.Send(ctx, sub.UserID, bot.FormatNotification(sub.Keyword, item))
		metrics.RecordNotification(err)
		if err != nil {
			s.fail(stats, sub, KindSend, fmt.Errorf("send %s: %w", item.Link, err))
			return
		}
		stats.Sent++
		sent++

		if err := s.store.MarkSeen(ctx, sub.UserID, sub.Keyword, item.Link); err != nil {
			s.fail(stats, sub, KindStorage, err)
			return
		}
	}

	if sent > 0 {
		s.log.Info("sent notifications", "user_id", sub.UserID, "keyword", sub.Keyword, "count", sent)
	}
}

func (s *Scheduler) fetch(ctx context.Context, keyword string) ([]model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	items, err := s.source.Fetch(ctx, keyword, s.opts.FetchLimit)
	metrics.RecordFetch(s.source.Name(), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", keyword, err)
	}
	return items, nil
}

func (s *Scheduler) fail(stats *CycleStats, sub model.Subscription, kind string, err error) {
	s.log.Error("process subscription",
		"user_id", sub.UserID,
		"keyword", sub.Keyword,
		"kind", kind,
		"error", err,
	)
	metrics.RecordError(kind)
	stats.Failures = append(stats.Failures, Failure{
		UserID:  sub.UserID,
		Keyword: sub.Keyword,
		Kind:    kind,
		Err:     err,
	})
}

func fetchKind(err error) string {
	var se *storage.Error
	switch {
	case errors.As(err, &se):
		return KindStorage
	case errors.Is(err, fetcher.ErrParse):
		return KindParse
	default:
		return KindNetwork
	}
}

func (s *Scheduler) notifyOperator(ctx context.Context, text string) {
	if s.opts.AdminChatID == 0 {
		return
	}
	if err := s.notifier.Send(ctx, s.opts.AdminChatID, text); err != nil {
		s.log.Error("notify operator", "chat_id", s.opts.AdminChatID, "error", err)
	}
}

// FormatReport renders the operator summary of a cycle with failures.
func FormatReport(stats CycleStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Polling cycle: %d of %d subscriptions failed, %d notifications sent.\n",
		len(stats.Failures), stats.Pairs, stats.Sent)
	for i, f := range stats.Failures {
		if i == maxReportLines {
			fmt.Fprintf(&b, "\n... and %d more", len(stats.Failures)-maxReportLines)
			break
		}
		if f.Keyword == "" {
			fmt.Fprintf(&b, "\n[%s] %v", f.Kind, f.Err)
			continue
		}
		fmt.Fprintf(&b, "\n[%s] user %d, %q: %v", f.Kind, f.UserID, f.Keyword, f.Err)
	}
	return b.String()
}
