// Package history persists dispatched actions beyond process lifetime. The
// session store stays the source of truth for live classification; the
// archive only records what was done, for inspection and replay.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

type Archive struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS action_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		success INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_action_history_session ON action_history(session_id, created_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record appends one dispatched action.
func (a *Archive) Record(ctx context.Context, sessionID string, rec models.ActionRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	query := `
	INSERT INTO action_history (id, session_id, category, summary, success, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, query,
		rec.ID, sessionID, string(rec.Category), rec.Summary, rec.Success, ts.Unix())
	if err != nil {
		return fmt.Errorf("record action %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records for a session, newest first.
func (a *Archive) Recent(ctx context.Context, sessionID string, limit int) ([]models.ActionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT id, category, summary, success, created_at
	FROM action_history WHERE session_id = ?
	ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := a.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query action history: %w", err)
	}
	defer rows.Close()

	var out []models.ActionRecord
	for rows.Next() {
		var rec models.ActionRecord
		var category string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &category, &rec.Summary, &rec.Success, &createdAt); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		rec.Category = models.Category(category)
		rec.Timestamp = time.Unix(createdAt, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action history: %w", err)
	}
	return out, nil
}

func (a *Archive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
