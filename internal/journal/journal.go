// Package journal writes the append-only per-document run log. No entry
// is ever edited or removed.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileTimeLayout = "20060102_150405"

// Journal appends one JSON line per document to a per-run log file.
// Safe for concurrent use; entries land in completion order.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	path   string
	logger *slog.Logger
}

// Open creates the run log file under dir, named for the batch start time.
func Open(dir string, startedAt time.Time, logger *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("dmc_run_%s.jsonl", startedAt.Format(fileTimeLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	return &Journal{
		file:   f,
		enc:    json.NewEncoder(f),
		path:   path,
		logger: logger.With("system", "journal"),
	}, nil
}

// Path returns the run log file path.
func (j *Journal) Path() string {
	return j.path
}

// WriteHeader records the batch identity and data source summary as the
// first line of the run log.
func (j *Journal) WriteHeader(h Header) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(h)
}

// Record appends a single entry. The entry's timestamp is stamped here if
// unset.
func (j *Journal) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(e); err != nil {
		return fmt.Errorf("append run log entry: %w", err)
	}
	return nil
}

// Close flushes and closes the run log file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Close(); err != nil {
		return fmt.Errorf("close run log: %w", err)
	}
	j.logger.Info("run log closed", "path", j.path)
	return nil
}
