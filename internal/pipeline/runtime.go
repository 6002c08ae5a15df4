// Package pipeline drives documents through classification, validation,
// allocation, and logging.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"dmcgen/internal/catalog"
	"dmcgen/internal/classify"
	"dmcgen/internal/config"
	"dmcgen/internal/dmc"
	"dmcgen/internal/document"
	"dmcgen/internal/history"
	"dmcgen/internal/journal"
	"dmcgen/internal/output"
)

// Classifier is the primary classification seam. classify.LLM satisfies
// it; tests substitute stubs.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (*classify.Candidate, error)
}

// Runtime carries the systems shared across a batch run. Catalogs and
// configuration are read-only after construction and safely shared
// without locking.
type Runtime struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      *catalog.Store
	LLM        Classifier
	Fallback   *classify.Fallback
	Validator  *dmc.Validator
	Allocator  *output.Allocator
	Journal    *journal.Journal
	History    history.OutcomeIndex
	Extractors []document.Extractor
	BatchID    uuid.UUID
}

// NewRuntime loads catalogs, opens the run log and outcome history, and
// wires the classification systems for one batch run.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	sources, err := resolveSNSSources(cfg)
	if err != nil {
		return nil, err
	}

	catalogOpts := catalog.LoadOptions{
		SNSSources:    sources,
		InfoCodesJSON: filepath.Join(cfg.Paths.Catalogs, cfg.Catalogs.InfoCodesJSON),
		InfoCodesText: filepath.Join(cfg.Paths.Catalogs, cfg.Catalogs.InfoCodesText),
	}
	store, err := catalog.Load(catalogOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	allocator, err := output.New(cfg.Paths.Output, cfg.Batch.DuplicateCeiling)
	if err != nil {
		return nil, fmt.Errorf("open output namespace: %w", err)
	}

	startedAt := time.Now()
	jnl, err := journal.Open(cfg.Paths.Logs, startedAt, logger)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open outcome history: %w", err)
	}

	rt := &Runtime{
		Logger:     logger.With("system", "pipeline"),
		Config:     cfg,
		Store:      store,
		LLM:        classify.NewLLM(cfg.LLM, logger),
		Fallback:   classify.NewFallback(store),
		Validator:  dmc.NewValidator(store, cfg.Code),
		Allocator:  allocator,
		Journal:    jnl,
		History:    hist,
		Extractors: []document.Extractor{document.TextExtractor{}},
		BatchID:    uuid.New(),
	}

	if err := rt.writeHeader(sources, infoSource(catalogOpts), startedAt); err != nil {
		return nil, err
	}

	return rt, nil
}

// Close releases the runtime's sinks.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.Journal != nil {
		if err := rt.Journal.Close(); err != nil {
			firstErr = err
		}
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// infoSource names the info code catalog file that Load resolved, using
// the same preference order it applies.
func infoSource(opts catalog.LoadOptions) string {
	if _, err := os.Stat(opts.InfoCodesJSON); err == nil {
		return filepath.Base(opts.InfoCodesJSON)
	}
	if _, err := os.Stat(opts.InfoCodesText); err == nil {
		return filepath.Base(opts.InfoCodesText)
	}
	return ""
}

func (rt *Runtime) writeHeader(sources []string, infoSrc string, startedAt time.Time) error {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = filepath.Base(s)
	}

	var conflicts []string
	for _, c := range rt.Store.Conflicts() {
		conflicts = append(conflicts, c.Code)
	}

	return rt.Journal.WriteHeader(journal.Header{
		BatchID:     rt.BatchID.String(),
		StartedAt:   startedAt.UTC(),
		SNSSources:  names,
		InfoSource:  infoSrc,
		SystemCount: len(rt.Store.Systems()),
		InfoCount:   len(rt.Store.InfoCodes()),
		Conflicts:   conflicts,
	})
}

// resolveSNSSources expands the configured source selection into absolute
// paths. An empty selection means every .json file in the catalog
// directory except the info code catalog.
func resolveSNSSources(cfg *config.Config) ([]string, error) {
	if len(cfg.Catalogs.Sources) > 0 {
		sources := make([]string, len(cfg.Catalogs.Sources))
		for i, name := range cfg.Catalogs.Sources {
			sources[i] = filepath.Join(cfg.Paths.Catalogs, name)
		}
		return sources, nil
	}

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.Catalogs, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan catalog directory: %w", err)
	}

	var sources []string
	for _, m := range matches {
		if filepath.Base(m) == cfg.Catalogs.InfoCodesJSON {
			continue
		}
		sources = append(sources, m)
	}
	sort.Strings(sources)
	return sources, nil
}

func (rt *Runtime) supports(ext string) bool {
	for _, ex := range rt.Extractors {
		if ex.Supports(ext) {
			return true
		}
	}
	return false
}
