package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// History is the on-disk journal of past sessions, stored in SQLite inside
// the work directory.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	mode             TEXT NOT NULL,
	started_at       INTEGER NOT NULL,
	finished_at      INTEGER NOT NULL,
	total            INTEGER NOT NULL,
	converted        INTEGER NOT NULL,
	remuxed          INTEGER NOT NULL,
	encoded          INTEGER NOT NULL,
	skipped          INTEGER NOT NULL,
	failed           INTEGER NOT NULL,
	audio_failures   INTEGER NOT NULL,
	retry_failures   INTEGER NOT NULL,
	generic_failures INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	path       TEXT NOT NULL,
	reason     TEXT NOT NULL,
	attempts   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_failures_session ON failures(session_id);
`

// OpenHistory opens the history database at path, creating the file and
// schema when absent. WAL mode plus a busy timeout lets a watch-mode batch
// and a concurrent --history listing coexist.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the database handle.
func (h *History) Close() error { return h.db.Close() }

// Record appends a finalized session and its failure rows in one
// transaction.
func (h *History) Record(s *Session) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO sessions
		(id, mode, started_at, finished_at, total, converted, remuxed, encoded,
		 skipped, failed, audio_failures, retry_failures, generic_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Mode), s.StartedAt.Unix(), s.FinishedAt.Unix(),
		s.Total, s.Converted, s.Remuxed, s.Encoded,
		s.Skipped, s.Failed, s.AudioFailures, s.RetryFailures, s.GenericFailures,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, f := range s.FailedFiles {
		if _, err := tx.Exec(
			`INSERT INTO failures (session_id, path, reason, attempts) VALUES (?, ?, ?, ?)`,
			s.ID, f.Path, string(f.Reason), f.Attempts,
		); err != nil {
			return fmt.Errorf("insert failure row: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to n sessions, newest first. Failure rows are not
// loaded; use [History.Failures] for a session's detail.
func (h *History) Recent(n int) ([]Session, error) {
	rows, err := h.db.Query(`SELECT id, mode, started_at, finished_at, total,
		converted, remuxed, encoded, skipped, failed,
		audio_failures, retry_failures, generic_failures
		FROM sessions ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var started, finished int64
		if err := rows.Scan(&s.ID, &s.Mode, &started, &finished, &s.Total,
			&s.Converted, &s.Remuxed, &s.Encoded, &s.Skipped, &s.Failed,
			&s.AudioFailures, &s.RetryFailures, &s.GenericFailures); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(started, 0)
		s.FinishedAt = time.Unix(finished, 0)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Failures returns the recorded failed files for a session.
func (h *History) Failures(sessionID string) ([]FailedFile, error) {
	rows, err := h.db.Query(
		`SELECT path, reason, attempts FROM failures WHERE session_id = ? ORDER BY path`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FailedFile
	for rows.Next() {
		var f FailedFile
		if err := rows.Scan(&f.Path, &f.Reason, &f.Attempts); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
