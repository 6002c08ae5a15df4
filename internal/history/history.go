// Package history provides a SQLite-backed, insert-only index of
// processing outcomes so an operator can query assignments that need
// manual review. It mirrors the run log content; the append-only JSONL
// journal remains the authoritative audit trail.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dmcgen/internal/classify"
	"dmcgen/internal/journal"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS outcomes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id      TEXT NOT NULL,
	document      TEXT NOT NULL,
	source        TEXT NOT NULL DEFAULT '',
	assigned_code TEXT NOT NULL DEFAULT '',
	output_name   TEXT NOT NULL DEFAULT '',
	confidence    INTEGER NOT NULL DEFAULT 0,
	reasoning     TEXT NOT NULL DEFAULT '',
	failure_kind  TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_outcomes_confidence ON outcomes(confidence);
CREATE INDEX IF NOT EXISTS idx_outcomes_source ON outcomes(source);
`

// Row is one recorded outcome.
type Row struct {
	BatchID      string
	Document     string
	Source       string
	AssignedCode string
	OutputName   string
	Confidence   int
	Reasoning    string
	FailureKind  string
	CreatedAt    time.Time
}

// OutcomeIndex defines the review-query surface over recorded outcomes.
// Rows are inserted, never updated or deleted.
type OutcomeIndex interface {
	Insert(batchID string, e journal.Entry) error
	LowConfidence(threshold int) ([]Row, error)
	BySource(source classify.Source) ([]Row, error)
	Close() error
}

// DB wraps a sql.DB with outcome-index operations.
type DB struct {
	conn *sql.DB
}

var _ OutcomeIndex = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Insert records one outcome.
func (db *DB) Insert(batchID string, e journal.Entry) error {
	confidence, reasoning := 0, ""
	if e.Candidate != nil {
		confidence = e.Candidate.Confidence
		reasoning = e.Candidate.Reasoning
	}

	_, err := db.conn.Exec(
		`INSERT INTO outcomes (batch_id, document, source, assigned_code, output_name, confidence, reasoning, failure_kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, e.Document, string(e.Source), e.AssignedCode, e.OutputName,
		confidence, reasoning, string(e.FailureKind),
	)
	if err != nil {
		return fmt.Errorf("history: insert outcome: %w", err)
	}
	return nil
}

// LowConfidence returns successful assignments at or below the threshold,
// lowest confidence first.
func (db *DB) LowConfidence(threshold int) ([]Row, error) {
	rows, err := db.conn.Query(
		`SELECT batch_id, document, source, assigned_code, output_name, confidence, reasoning, failure_kind, created_at
		 FROM outcomes
		 WHERE failure_kind = '' AND confidence <= ?
		 ORDER BY confidence ASC, id ASC`,
		threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query low confidence: %w", err)
	}
	return scanRows(rows)
}

// BySource returns outcomes produced by the given classifier source.
func (db *DB) BySource(source classify.Source) ([]Row, error) {
	rows, err := db.conn.Query(
		`SELECT batch_id, document, source, assigned_code, output_name, confidence, reasoning, failure_kind, created_at
		 FROM outcomes
		 WHERE source = ?
		 ORDER BY id ASC`,
		string(source),
	)
	if err != nil {
		return nil, fmt.Errorf("history: query by source: %w", err)
	}
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(
			&r.BatchID, &r.Document, &r.Source, &r.AssignedCode, &r.OutputName,
			&r.Confidence, &r.Reasoning, &r.FailureKind, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return out, nil
}
