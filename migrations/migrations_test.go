package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version'
		ORDER BY name`)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, n)
	}
	return names
}

func TestRun(t *testing.T) {
	db := openDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"seen_items", "subscriptions", "users"}, tables(t, db)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	if err := Run(db); err != nil {
		t.Fatalf("second run must be a no-op: %v", err)
	}
}

func TestProviderDownTo(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	p, err := NewProvider(db)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if diff := cmp.Diff(int64(2), v); diff != "" {
		t.Errorf("version mismatch (-want +got):\n%s", diff)
	}

	if _, err := p.DownTo(ctx, 0); err != nil {
		t.Fatalf("down: %v", err)
	}
	if got := tables(t, db); len(got) != 0 {
		t.Errorf("expected no tables after reset, got %v", got)
	}
}
