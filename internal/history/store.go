// Package history provides persistent run storage using SQLite.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/ppiankov/ssl-checker/internal/result"
)

// RunSummary is a compact representation of a historical check run.
type RunSummary struct {
	At          time.Time `json:"at"`
	ID          int64     `json:"id"`
	TargetCount int       `json:"targetCount"`
	OkCount     int       `json:"okCount"`
	WarnCount   int       `json:"warnCount"`
	FailCount   int       `json:"failCount"`  // policy and content faults
	ErrorCount  int       `json:"errorCount"` // transport faults
}

// TrendPoint is one historical observation of a single target.
type TrendPoint struct {
	At              time.Time `json:"at"`
	Category        string    `json:"category"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}

// Store persists check runs and per-target outcomes to SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs
// migrations. Use ":memory:" for an in-memory database (useful for tests).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a report and its outcomes.
func (s *Store) Save(rep result.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // commit below; rollback is no-op after commit

	var okCount, warnCount, failCount, errCount int
	for i := range rep.Results {
		o := rep.Results[i].Outcome
		switch {
		case o.Category == result.CategoryOk:
			okCount++
		case o.Category == result.CategoryExpiringSoon:
			warnCount++
		case o.TransportFault():
			errCount++
		default:
			failCount++
		}
	}

	res, err := tx.Exec(
		"INSERT INTO runs (at, target_count, ok_count, warn_count, fail_count, error_count) VALUES (?, ?, ?, ?, ?, ?)",
		rep.At, len(rep.Results), okCount, warnCount, failCount, errCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting run id: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO outcomes (run_id, host, port, category, days_until_expiry, not_after, subject, issuer, detail) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // statement lifetime bounded by tx

	for i := range rep.Results {
		r := &rep.Results[i]
		detail := r.Outcome.Reason
		if detail == "" {
			detail = r.Outcome.Cause
		}
		_, err := stmt.Exec(runID, r.Target.Host, r.Target.Port, r.Outcome.Category,
			r.Outcome.DaysUntilExpiry, r.Outcome.NotAfter, r.Outcome.Subject, r.Outcome.Issuer, detail)
		if err != nil {
			return fmt.Errorf("inserting outcome: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the most recent run summaries, newest first.
func (s *Store) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		"SELECT id, at, target_count, ok_count, warn_count, fail_count, error_count FROM runs ORDER BY at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var summaries []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.At, &r.TargetCount, &r.OkCount, &r.WarnCount, &r.FailCount, &r.ErrorCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

// Trend returns historical outcomes for one target, newest first.
func (s *Store) Trend(host string, port uint16, limit int) ([]TrendPoint, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT r.at, o.category, o.days_until_expiry
		FROM outcomes o
		JOIN runs r ON r.id = o.run_id
		WHERE o.host = ? AND o.port = ?
		ORDER BY r.at DESC
		LIMIT ?`,
		host, port, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying trend: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.At, &p.Category, &p.DaysUntilExpiry); err != nil {
			return nil, fmt.Errorf("scanning trend point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
