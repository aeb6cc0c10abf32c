// Package store handles SQLite persistence of finished stats sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tradescan/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width timestamps keep text ordering chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			reason TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_terms (
			session_id TEXT NOT NULL,
			term TEXT NOT NULL,
			count INTEGER NOT NULL,
			sum REAL NOT NULL,
			min REAL NOT NULL,
			max REAL NOT NULL,
			average REAL NOT NULL,
			median REAL NOT NULL,
			quartile1 REAL NOT NULL,
			quartile3 REAL NOT NULL,
			PRIMARY KEY (session_id, term)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_terms_term ON session_terms(term);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its per-term statistics.
// A random id is assigned when rec.ID is empty. The stored id is returned.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, profile, started_at, ended_at, reason) VALUES (?, ?, ?, ?, ?)`,
		id,
		rec.Profile,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.EndedAt.UTC().Format(timeLayout),
		rec.Reason,
	)
	if err != nil {
		return "", err
	}

	if len(rec.Terms) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_terms (session_id, term, count, sum, min, max, average, median, quartile1, quartile3)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ts := range rec.Terms {
			if _, err = stmt.ExecContext(ctx, id, ts.Term, ts.Count, ts.Sum, ts.Min, ts.Max,
				ts.Average, ts.Median, ts.Quartile1, ts.Quartile3); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListSessions returns stored sessions, oldest first, filtered by profile and start date.
// Last keeps only the most recent N sessions.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Profile != "" {
		clauses = append(clauses, "s.profile = ?")
		args = append(args, filter.Profile)
	}
	if filter.Since != nil {
		clauses = append(clauses, "s.ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT s.id, s.profile, s.started_at, s.ended_at, s.reason,
			COUNT(t.term), COALESCE(SUM(t.count), 0)
		FROM sessions s
		LEFT JOIN session_terms t ON t.session_id = s.id
		WHERE %s
		GROUP BY s.id
		ORDER BY s.ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt, endedAt string
		if err := rows.Scan(&agg.ID, &agg.Profile, &startedAt, &endedAt, &agg.Reason, &agg.Terms, &agg.Samples); err != nil {
			return nil, err
		}
		if agg.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if agg.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// ListTermHistory returns the per-session statistics of one term, oldest first.
func (s *Store) ListTermHistory(ctx context.Context, term string, last int) ([]model.TermHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.session_id, s.ended_at, t.count, t.sum, t.min, t.max, t.average, t.median, t.quartile1, t.quartile3
		FROM session_terms t
		JOIN sessions s ON s.id = t.session_id
		WHERE t.term = ?
		ORDER BY s.ended_at ASC`, term)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TermHistoryEntry
	for rows.Next() {
		var e model.TermHistoryEntry
		var endedAt string
		if err := rows.Scan(&e.SessionID, &endedAt, &e.Count, &e.Sum, &e.Min, &e.Max,
			&e.Average, &e.Median, &e.Quartile1, &e.Quartile3); err != nil {
			return nil, err
		}
		if e.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if last > 0 && len(result) > last {
		result = result[len(result)-last:]
	}
	return result, nil
}

// SessionTerms returns the stored term statistics of one session.
func (s *Store) SessionTerms(ctx context.Context, sessionID string) ([]model.TermSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count, sum, min, max, average, median, quartile1, quartile3
		FROM session_terms WHERE session_id = ? ORDER BY term`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TermSummary
	for rows.Next() {
		var ts model.TermSummary
		if err := rows.Scan(&ts.Term, &ts.Count, &ts.Sum, &ts.Min, &ts.Max,
			&ts.Average, &ts.Median, &ts.Quartile1, &ts.Quartile3); err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, rows.Err()
}
