package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"keyword_bot/internal/metrics"
	"keyword_bot/internal/model"
	"keyword_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
//
// The pool is limited to a single connection, so statements and
// transactions from the scheduler and the command handlers never interleave.
type SQLite struct {
	db      *sql.DB
	seenCap int
	now     func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
// seenCap bounds the number of seen items kept per user; zero or less
// selects DefaultSeenCap.
func NewSQLite(dsn string, seenCap int) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if seenCap <= 0 {
		seenCap = DefaultSeenCap
	}
	return &SQLite{db: db, seenCap: seenCap, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// AddKeyword subscribes a user to a keyword. Surrounding whitespace is
// trimmed; an empty keyword is rejected without error. It reports whether a
// new subscription was created.
func (s *SQLite) AddKeyword(ctx context.Context, userID int64, keyword string) (bool, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (user_id, keyword, created_at) VALUES (?, ?, ?)`,
		userID, kw, s.timestamp(),
	)
	if err != nil {
		return false, wrap("add keyword", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("add keyword", err)
	}
	return n > 0, nil
}

// RemoveKeyword deletes a subscription and reports whether it existed.
// Seen items of the keyword are kept so that re-adding it does not replay
// already delivered entries.
func (s *SQLite) RemoveKeyword(ctx context.Context, userID int64, keyword string) (bool, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND keyword = ?`, userID, kw,
	)
	if err != nil {
		return false, wrap("remove keyword", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("remove keyword", err)
	}
	return n > 0, nil
}

// ClearKeywords deletes every subscription of a user and returns how many
// were removed.
func (s *SQLite) ClearKeywords(ctx context.Context, userID int64) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, wrap("clear keywords", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("clear keywords", err)
	}
	return int(n), nil
}

// ListKeywords returns the keywords of a user in insertion order.
func (s *SQLite) ListKeywords(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword FROM subscriptions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, wrap("list keywords", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, wrap("scan keyword", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, wrap("list keywords", rows.Err())
}

// ListAllSubscriptions returns a snapshot of every (user, keyword) pair,
// ordered by user and then insertion order.
func (s *SQLite) ListAllSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, keyword, created_at FROM subscriptions ORDER BY user_id, id`,
	)
	if err != nil {
		return nil, wrap("list subscriptions", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var created string
		if err := rows.Scan(&sub.UserID, &sub.Keyword, &created); err != nil {
			return nil, wrap("scan subscription", err)
		}
		sub.CreatedAt, _ = time.Parse(timeLayout, created)
		subs = append(subs, sub)
	}
	return subs, wrap("list subscriptions", rows.Err())
}

// HasSeen checks whether a link was already delivered to the user for the keyword.
func (s *SQLite) HasSeen(ctx context.Context, userID int64, keyword, link string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE user_id = ? AND keyword = ? AND link = ?`,
		userID, keyword, link,
	).Scan(&count)
	if err != nil {
		return false, wrap("check seen", err)
	}
	return count > 0, nil
}

// MarkSeen records a delivered link. Marking the same link again is a no-op.
// When the insert pushes the user over the seen cap, the oldest entries are
// deleted until about a tenth of the cap is free again.
func (s *SQLite) MarkSeen(ctx context.Context, userID int64, keyword, link string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (user_id, keyword, link, created_at) VALUES (?, ?, ?, ?)`,
		userID, keyword, link, s.timestamp(),
	)
	if err != nil {
		return wrap("mark seen", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return wrap("mark seen", err)
	}

	var pruned int64
	if inserted > 0 {
		pruned, err = s.prune(ctx, tx, userID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit", err)
	}
	if pruned > 0 {
		metrics.SeenPruned.Add(float64(pruned))
	}
	return nil
}

func (s *SQLite) prune(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		return 0, wrap("count seen", err)
	}
	if count <= s.seenCap {
		return 0, nil
	}

	keep := s.seenCap - s.seenCap/10
	res, err := tx.ExecContext(ctx,
		`DELETE FROM seen_items WHERE id IN (
		     SELECT id FROM seen_items WHERE user_id = ? ORDER BY created_at, id LIMIT ?
		 )`,
		userID, count-keep,
	)
	if err != nil {
		return 0, wrap("prune seen", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("prune seen", err)
	}
	return n, nil
}

// CountSeen returns the number of seen items stored for a user.
func (s *SQLite) CountSeen(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, wrap("count seen", err)
	}
	return count, nil
}

// GetLang returns the interface language of a user, English by default.
func (s *SQLite) GetLang(ctx context.Context, userID int64) (model.Lang, error) {
	var lang string
	err := s.db.QueryRowContext(ctx, `SELECT lang FROM users WHERE user_id = ?`, userID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LangEN, nil
	}
	if err != nil {
		return model.LangEN, wrap("get lang", err)
	}
	l, _ := model.ParseLang(lang)
	return l, nil
}

// SetLang stores the interface language of a user.
func (s *SQLite) SetLang(ctx context.Context, userID int64, lang model.Lang) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, lang, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET lang = excluded.lang`,
		userID, string(lang), s.timestamp(),
	)
	return wrap("set lang", err)
}

// GetState returns the pending menu action of a user.
func (s *SQLite) GetState(ctx context.Context, userID int64) (model.State, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM users WHERE user_id = ?`, userID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StateIdle, nil
	}
	if err != nil {
		return model.StateIdle, wrap("get state", err)
	}
	return model.State(state), nil
}

// SetState stores the pending menu action of a user.
func (s *SQLite) SetState(ctx context.Context, userID int64, state model.State) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, state, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET state = excluded.state`,
		userID, string(state), s.timestamp(),
	)
	return wrap("set state", err)
}
