package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dyike/QuorumGo/models"
	"github.com/dyike/QuorumGo/pkg/sqlite"
)

// Store keeps completed analysis runs and debate transcripts so earlier
// sessions can be listed and re-read.
type Store struct {
	db *sql.DB
}

// RunRecord is one persisted analysis run.
type RunRecord struct {
	ID         string
	Symbol     string
	Tier       string
	Pipeline   string
	Grade      string
	Confidence int
	Response   *models.AnalysisResponse
	CreatedAt  string
}

// Open opens (and if needed creates) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    tier TEXT NOT NULL,
    pipeline TEXT NOT NULL,
    grade TEXT,
    confidence INTEGER NOT NULL DEFAULT 0,
    response_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol_created ON analysis_runs(symbol, created_at);

CREATE TABLE IF NOT EXISTS debate_messages (
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    round INTEGER NOT NULL,
    persona TEXT NOT NULL,
    message_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, seq)
);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRun persists a completed analysis run.
func (s *Store) SaveRun(ctx context.Context, id, symbol, tier string, resp *models.AnalysisResponse) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("run id is required")
	}
	if resp == nil {
		return fmt.Errorf("response is required")
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	grade := ""
	confidence := 0
	if resp.CrossValidation != nil {
		grade = string(resp.CrossValidation.Grade)
		confidence = resp.CrossValidation.Confidence
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO analysis_runs (id, symbol, tier, pipeline, grade, confidence, response_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    symbol=excluded.symbol,
    tier=excluded.tier,
    pipeline=excluded.pipeline,
    grade=excluded.grade,
    confidence=excluded.confidence,
    response_json=excluded.response_json
`, id, symbol, tier, resp.AnalysisType, grade, confidence, string(data))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, symbol, tier, pipeline, grade, confidence, response_json, created_at
FROM analysis_runs WHERE id = ?`, id)

	return scanRun(row)
}

// ListRuns returns the most recent runs for a symbol, newest first. An
// empty symbol lists across all symbols.
func (s *Store) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT id, symbol, tier, pipeline, grade, confidence, response_json, created_at
FROM analysis_runs`
	args := []interface{}{}
	if symbol != "" {
		query += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var respJSON string
	if err := row.Scan(&rec.ID, &rec.Symbol, &rec.Tier, &rec.Pipeline, &rec.Grade, &rec.Confidence, &respJSON, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	var resp models.AnalysisResponse
	if err := json.Unmarshal([]byte(respJSON), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	rec.Response = &resp
	return &rec, nil
}

// SaveDebateMessages appends one round's transcript entries under a
// session id.
func (s *Store) SaveDebateMessages(ctx context.Context, sessionID string, msgs []models.DebateMessage) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM debate_messages WHERE session_id = ?`, sessionID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		next++
		if _, err := tx.ExecContext(ctx, `
INSERT INTO debate_messages (session_id, seq, round, persona, message_json)
VALUES (?, ?, ?, ?, ?)`, sessionID, next, m.Round, m.Persona, string(data)); err != nil {
			return fmt.Errorf("save message: %w", err)
		}
	}

	return tx.Commit()
}

// DebateTranscript loads a session's full transcript in append order.
func (s *Store) DebateTranscript(ctx context.Context, sessionID string) ([]models.DebateMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT message_json FROM debate_messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var msgs []models.DebateMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var m models.DebateMessage
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
