package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dyike/QuorumGo/pkg/sqlite"
)

// SQLiteMeter persists usage counters in a local sqlite database.
type SQLiteMeter struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteMeter(dbPath string) (*SQLiteMeter, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	m := &SQLiteMeter{db: db, now: time.Now}
	if err := m.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *SQLiteMeter) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *SQLiteMeter) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS usage_counters (
    user_id TEXT NOT NULL,
    feature TEXT NOT NULL,
    window_start DATETIME NOT NULL,
    used INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, feature, window_start)
);`
	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("create usage_counters table: %w", err)
	}
	return nil
}

// Allow reports whether another call fits in the current daily window.
// A quota of zero or below means the feature is unmetered.
func (m *SQLiteMeter) Allow(ctx context.Context, userID, feature string, quota int) (Decision, error) {
	now := m.now()
	reset := windowReset(now)
	if quota <= 0 {
		return Decision{Allowed: true, Remaining: -1, ResetAt: reset}, nil
	}

	var used int
	err := m.db.QueryRowContext(ctx,
		`SELECT used FROM usage_counters WHERE user_id = ? AND feature = ? AND window_start = ?`,
		userID, feature, windowStart(now)).Scan(&used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Decision{}, fmt.Errorf("query usage: %w", err)
	}

	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   used < quota,
		Remaining: remaining,
		ResetAt:   reset,
	}, nil
}

// Increment records one consumed call in the current window.
func (m *SQLiteMeter) Increment(ctx context.Context, userID, feature string) error {
	_, err := m.db.ExecContext(ctx, `
INSERT INTO usage_counters (user_id, feature, window_start, used, updated_at)
VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (user_id, feature, window_start)
DO UPDATE SET used = used + 1, updated_at = CURRENT_TIMESTAMP`,
		userID, feature, windowStart(m.now()))
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}
