package journal_test

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"dmcgen/internal/classify"
	"dmcgen/internal/journal"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan run log: %v", err)
	}
	return lines
}

func TestOpenNamesFileByStartTime(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	j, err := journal.Open(dir, start, discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	if !strings.HasSuffix(j.Path(), "dmc_run_20260314_092653.jsonl") {
		t.Errorf("path: got %q", j.Path())
	}
}

func TestHeaderAndEntriesAppendInOrder(t *testing.T) {
	dir := t.TempDir()
	j, err := journal.Open(dir, time.Now(), discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	header := journal.Header{
		BatchID:     "batch-1",
		StartedAt:   time.Now().UTC(),
		SNSSources:  []string{"sns.json"},
		SystemCount: 2,
		InfoCount:   3,
	}
	if err := j.WriteHeader(header); err != nil {
		t.Fatalf("write header: %v", err)
	}

	entries := []journal.Entry{
		{
			Document:     "a.md",
			Source:       classify.SourceLLM,
			AssignedCode: "DMC-USERMODEL-A-24-10-0000-00A-520A-D",
			OutputName:   "DMC-USERMODEL-A-24-10-0000-00A-520A-D.md",
		},
		{
			Document:    "b.md",
			FailureKind: journal.FailureExtract,
			Error:       "no extractor for .pdf",
		},
	}
	for _, e := range entries {
		if err := j.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, j.Path())
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want header plus two entries", len(lines))
	}

	var gotHeader journal.Header
	if err := json.Unmarshal([]byte(lines[0]), &gotHeader); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if gotHeader.BatchID != "batch-1" || gotHeader.SystemCount != 2 {
		t.Errorf("header: got %+v", gotHeader)
	}

	var first journal.Entry
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if first.Document != "a.md" || first.Source != classify.SourceLLM {
		t.Errorf("first entry: got %+v", first)
	}
	if first.Timestamp.IsZero() {
		t.Error("entry timestamp must be stamped on record")
	}

	var second journal.Entry
	if err := json.Unmarshal([]byte(lines[2]), &second); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if second.FailureKind != journal.FailureExtract {
		t.Errorf("second entry failure kind: got %q", second.FailureKind)
	}
}

func TestRecordConcurrent(t *testing.T) {
	dir := t.TempDir()
	j, err := journal.Open(dir, time.Now(), discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.Record(journal.Entry{Document: string(rune('a'+i)) + ".md"}); err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, j.Path())
	if len(lines) != n {
		t.Fatalf("lines: got %d, want %d", len(lines), n)
	}
	for _, line := range lines {
		var e journal.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Errorf("interleaved write produced invalid line %q: %v", line, err)
		}
	}
}
