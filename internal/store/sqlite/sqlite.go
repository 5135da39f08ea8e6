// Package sqlite implements the journal on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avetrov/channelgate/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS hook_deliveries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	event      TEXT NOT NULL,
	channel    TEXT NOT NULL,
	status     INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS auth_failures (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	channel    TEXT NOT NULL,
	socket_id  TEXT NOT NULL,
	status     INTEGER NOT NULL DEFAULT 0,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Journal implements store.Journal for SQLite.
type Journal struct {
	db *sql.DB
}

// New opens (or creates) the journal database at dbPath.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordHookDelivery stores one webhook delivery outcome.
func (j *Journal) RecordHookDelivery(ctx context.Context, d store.HookDelivery) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO hook_deliveries (event, channel, status, error) VALUES (?, ?, ?, ?)`,
		d.Event, d.Channel, d.Status, d.Error,
	)
	if err != nil {
		return fmt.Errorf("insert hook delivery: %w", err)
	}
	return nil
}

// RecordAuthFailure stores one rejected subscription attempt.
func (j *Journal) RecordAuthFailure(ctx context.Context, f store.AuthFailure) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO auth_failures (channel, socket_id, status, reason) VALUES (?, ?, ?, ?)`,
		f.Channel, f.SocketID, f.Status, f.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert auth failure: %w", err)
	}
	return nil
}

// HookStats aggregates delivery outcomes. A delivery counts as failed when
// it recorded a transport error or a non-2xx status.
func (j *Journal) HookStats(ctx context.Context) (store.HookStats, error) {
	var stats store.HookStats
	row := j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN error = '' AND status BETWEEN 200 AND 299 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error != '' OR status < 200 OR status > 299 THEN 1 ELSE 0 END), 0)
		FROM hook_deliveries`)
	if err := row.Scan(&stats.Delivered, &stats.Failed); err != nil {
		return stats, fmt.Errorf("query hook stats: %w", err)
	}
	return stats, nil
}

// RecentAuthFailures returns the most recent rejections, newest first.
func (j *Journal) RecentAuthFailures(ctx context.Context, limit int) ([]store.AuthFailure, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, channel, socket_id, status, reason, created_at
		FROM auth_failures ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query auth failures: %w", err)
	}
	defer rows.Close()

	var out []store.AuthFailure
	for rows.Next() {
		var f store.AuthFailure
		if err := rows.Scan(&f.ID, &f.Channel, &f.SocketID, &f.Status, &f.Reason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan auth failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
