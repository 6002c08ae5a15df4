package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dmcgen/internal/journal"
)

// Summary counts batch outcomes for the completion report.
type Summary struct {
	Processed    int
	Succeeded    int
	Failed       int
	FallbackUsed int
	Cancelled    int
}

// Run processes every supported document in the configured input
// directory. A failed document never stops the batch; cancellation stops
// dispatch and records the remaining documents as cancelled.
func (rt *Runtime) Run(ctx context.Context) (*Summary, error) {
	docs, err := rt.listDocuments()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if len(docs) == 0 {
		rt.Logger.Warn("no documents to process", "dir", rt.Config.Paths.Docs)
		return summary, nil
	}

	workers := rt.workerCount(len(docs))
	rt.Logger.Info(
		"batch started",
		"batch_id", rt.BatchID.String(),
		"documents", len(docs),
		"workers", workers,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range docs {
		g.Go(func() error {
			var e journal.Entry
			if gctx.Err() != nil {
				e = rt.record(journal.Entry{
					Document:    filepath.Base(path),
					FailureKind: journal.FailureCancelled,
					Error:       gctx.Err().Error(),
				})
			} else {
				e = rt.ProcessDocument(gctx, path)
			}

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			switch {
			case e.FailureKind == journal.FailureCancelled:
				summary.Cancelled++
			case e.FailureKind != "":
				summary.Failed++
			default:
				summary.Succeeded++
				if e.FallbackUsed {
					summary.FallbackUsed++
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	rt.Logger.Info(
		"batch complete",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"fallback_used", summary.FallbackUsed,
		"cancelled", summary.Cancelled,
		"run_log", rt.Journal.Path(),
	)
	return summary, nil
}

// listDocuments returns the supported documents in the input directory,
// sorted by name so batches dispatch in a stable order.
func (rt *Runtime) listDocuments() ([]string, error) {
	entries, err := os.ReadDir(rt.Config.Paths.Docs)
	if err != nil {
		return nil, fmt.Errorf("read document directory: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() || !rt.supports(filepath.Ext(entry.Name())) {
			continue
		}
		docs = append(docs, filepath.Join(rt.Config.Paths.Docs, entry.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}

func (rt *Runtime) workerCount(docs int) int {
	workers := rt.Config.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > docs {
		workers = docs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
