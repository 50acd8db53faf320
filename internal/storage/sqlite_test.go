package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"keyword_bot/internal/model"
)

var ignoreSubTS = cmpopts.IgnoreFields(model.Subscription{}, "CreatedAt")

func newTestDB(t *testing.T, seenCap int) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:", seenCap)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func TestAddKeyword(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	tests := []struct {
		name    string
		keyword string
		want    bool
	}{
		{name: "new keyword", keyword: "bitcoin", want: true},
		{name: "duplicate keyword", keyword: "bitcoin", want: false},
		{name: "duplicate after trim", keyword: "  bitcoin \n", want: false},
		{name: "empty keyword", keyword: "", want: false},
		{name: "whitespace only", keyword: "   ", want: false},
		{name: "another keyword", keyword: "care worker", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AddKeyword(ctx, 1, tt.keyword)
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AddKeyword mismatch (-want +got):\n%s", diff)
			}
		})
	}

	got, err := s.ListKeywords(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"bitcoin", "care worker"}, got); diff != "" {
		t.Errorf("ListKeywords mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveKeyword(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	for _, kw := range []string{"alpha", "beta"} {
		if _, err := s.AddKeyword(ctx, 1, kw); err != nil {
			t.Fatalf("add %s: %v", kw, err)
		}
	}

	tests := []struct {
		name    string
		keyword string
		want    bool
		remain  []string
	}{
		{name: "absent keyword", keyword: "absent", want: false, remain: []string{"alpha", "beta"}},
		{name: "existing keyword", keyword: " alpha ", want: true, remain: []string{"beta"}},
		{name: "already removed", keyword: "alpha", want: false, remain: []string{"beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.RemoveKeyword(ctx, 1, tt.keyword)
			if err != nil {
				t.Fatalf("remove: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RemoveKeyword mismatch (-want +got):\n%s", diff)
			}
			list, err := s.ListKeywords(ctx, 1)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff(tt.remain, list); diff != "" {
				t.Errorf("remaining keywords mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClearKeywords(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	for _, kw := range []string{"a", "b", "c"} {
		if _, err := s.AddKeyword(ctx, 1, kw); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := s.AddKeyword(ctx, 2, "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	n, err := s.ClearKeywords(ctx, 1)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if diff := cmp.Diff(3, n); diff != "" {
		t.Errorf("cleared count mismatch (-want +got):\n%s", diff)
	}

	own, _ := s.ListKeywords(ctx, 1)
	if len(own) != 0 {
		t.Errorf("expected no keywords for user 1, got %v", own)
	}
	other, _ := s.ListKeywords(ctx, 2)
	if diff := cmp.Diff([]string{"a"}, other); diff != "" {
		t.Errorf("other user keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	seed := []model.Subscription{
		{UserID: 20, Keyword: "gold"},
		{UserID: 10, Keyword: "oil"},
		{UserID: 20, Keyword: "silver"},
		{UserID: 10, Keyword: "gas"},
	}
	for _, sub := range seed {
		if _, err := s.AddKeyword(ctx, sub.UserID, sub.Keyword); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := s.ListAllSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}

	want := []model.Subscription{
		{UserID: 10, Keyword: "oil"},
		{UserID: 10, Keyword: "gas"},
		{UserID: 20, Keyword: "gold"},
		{UserID: 20, Keyword: "silver"},
	}
	if diff := cmp.Diff(want, got, ignoreSubTS); diff != "" {
		t.Errorf("ListAllSubscriptions mismatch (-want +got):\n%s", diff)
	}
	for _, sub := range got {
		if sub.CreatedAt.IsZero() {
			t.Errorf("expected CreatedAt for %q", sub.Keyword)
		}
	}
}

func TestSeenItems(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	seen, err := s.HasSeen(ctx, 1, "k", "https://example.com/1")
	if err != nil {
		t.Fatalf("has seen: %v", err)
	}
	if seen {
		t.Fatal("expected link to be unseen")
	}

	for i := 0; i < 3; i++ {
		if err := s.MarkSeen(ctx, 1, "k", "https://example.com/1"); err != nil {
			t.Fatalf("mark seen #%d: %v", i, err)
		}
	}

	tests := []struct {
		name    string
		userID  int64
		keyword string
		link    string
		want    bool
	}{
		{name: "marked link", userID: 1, keyword: "k", link: "https://example.com/1", want: true},
		{name: "other keyword", userID: 1, keyword: "other", link: "https://example.com/1", want: false},
		{name: "other user", userID: 2, keyword: "k", link: "https://example.com/1", want: false},
		{name: "other link", userID: 1, keyword: "k", link: "https://example.com/2", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasSeen(ctx, tt.userID, tt.keyword, tt.link)
			if err != nil {
				t.Fatalf("has seen: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("HasSeen mismatch (-want +got):\n%s", diff)
			}
		})
	}

	count, err := s.CountSeen(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if diff := cmp.Diff(1, count); diff != "" {
		t.Errorf("repeated MarkSeen changed the count (-want +got):\n%s", diff)
	}
}

func TestMarkSeenPrunesOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 20)
	s.now = tickingClock()

	for i := 1; i <= 21; i++ {
		if err := s.MarkSeen(ctx, 1, "k", fmt.Sprintf("link-%02d", i)); err != nil {
			t.Fatalf("mark seen %d: %v", i, err)
		}
	}

	count, err := s.CountSeen(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	// 21 rows exceed the cap of 20; a pass keeps cap - cap/10 = 18.
	if diff := cmp.Diff(18, count); diff != "" {
		t.Errorf("count after prune mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i <= 21; i++ {
		link := fmt.Sprintf("link-%02d", i)
		got, err := s.HasSeen(ctx, 1, "k", link)
		if err != nil {
			t.Fatalf("has seen: %v", err)
		}
		want := i > 3
		if got != want {
			t.Errorf("HasSeen(%s) = %v, want %v", link, got, want)
		}
	}
}

func TestMarkSeenPruneIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 10)
	s.now = tickingClock()

	if err := s.MarkSeen(ctx, 2, "k", "keep-me"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	for i := 0; i < 30; i++ {
		if err := s.MarkSeen(ctx, 1, "k", fmt.Sprintf("l%d", i)); err != nil {
			t.Fatalf("mark seen: %v", err)
		}
		count, err := s.CountSeen(ctx, 1)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count > 10 {
			t.Fatalf("count %d exceeds cap after insert %d", count, i)
		}
	}

	seen, err := s.HasSeen(ctx, 2, "k", "keep-me")
	if err != nil {
		t.Fatalf("has seen: %v", err)
	}
	if !seen {
		t.Error("pruning user 1 removed an item of user 2")
	}
}

func TestRemoveKeywordKeepsSeenItems(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	if _, err := s.AddKeyword(ctx, 1, "k"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.MarkSeen(ctx, 1, "k", "L1"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if _, err := s.RemoveKeyword(ctx, 1, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	seen, err := s.HasSeen(ctx, 1, "k", "L1")
	if err != nil {
		t.Fatalf("has seen: %v", err)
	}
	if !seen {
		t.Error("expected seen item to survive keyword removal")
	}
}

func TestUserPreferences(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 0)

	lang, err := s.GetLang(ctx, 1)
	if err != nil {
		t.Fatalf("get lang: %v", err)
	}
	if diff := cmp.Diff(model.LangEN, lang); diff != "" {
		t.Errorf("default lang mismatch (-want +got):\n%s", diff)
	}

	state, err := s.GetState(ctx, 1)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if diff := cmp.Diff(model.StateIdle, state); diff != "" {
		t.Errorf("default state mismatch (-want +got):\n%s", diff)
	}

	if err := s.SetState(ctx, 1, model.StateAwaitAdd); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := s.SetLang(ctx, 1, model.LangFA); err != nil {
		t.Fatalf("set lang: %v", err)
	}

	lang, _ = s.GetLang(ctx, 1)
	state, _ = s.GetState(ctx, 1)
	if diff := cmp.Diff(model.LangFA, lang); diff != "" {
		t.Errorf("lang mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.StateAwaitAdd, state); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t, 50)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				if err := s.MarkSeen(ctx, 1, "k", fmt.Sprintf("w%d-%d", w, i)); err != nil {
					t.Errorf("mark seen: %v", err)
					return
				}
			}
		}(w)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := s.AddKeyword(ctx, 1, fmt.Sprintf("kw-%d", i)); err != nil {
					t.Errorf("add keyword: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	count, err := s.CountSeen(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count > 50 {
		t.Errorf("seen count %d exceeds cap", count)
	}
	keywords, _ := s.ListKeywords(ctx, 1)
	if diff := cmp.Diff(10, len(keywords)); diff != "" {
		t.Errorf("keyword count mismatch (-want +got):\n%s", diff)
	}
}

func TestStorageErrorAfterClose(t *testing.T) {
	s, err := NewSQLite(":memory:", 0)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	_ = s.Close()

	_, err = s.AddKeyword(context.Background(), 1, "k")
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *storage.Error, got %v", err)
	}
	if diff := cmp.Diff("add keyword", serr.Op); diff != "" {
		t.Errorf("Op mismatch (-want +got):\n%s", diff)
	}
}

// Ensure the Storage interface is satisfied.
var _ Storage = (*SQLite)(nil)
