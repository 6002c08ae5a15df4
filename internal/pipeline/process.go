package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"dmcgen/internal/classify"
	"dmcgen/internal/dmc"
	"dmcgen/internal/document"
	"dmcgen/internal/journal"
	"dmcgen/internal/output"
	"dmcgen/internal/prompts"
)

// ProcessDocument runs one document through the full flow and records the
// outcome in the run log and outcome history. Classification failures are
// recovered by the deterministic fallback; validation, allocation, and
// write failures mark the document failed without stopping the batch.
// Cancellation is the one error that ends work on a document outright.
func (rt *Runtime) ProcessDocument(ctx context.Context, path string) journal.Entry {
	name := filepath.Base(path)
	log := rt.Logger.With("document", name)

	doc, err := document.Read(path, rt.Extractors...)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return rt.record(journal.Entry{
			Document:    name,
			FailureKind: journal.FailureExtract,
			Error:       err.Error(),
		})
	}

	entry := journal.Entry{
		Document:     name,
		HeadingChars: len(doc.Headings),
		BodyChars:    len(doc.Body),
		TotalChars:   doc.CombinedLen(),
	}

	cand, llmErr := rt.classify(ctx, doc, log)
	if llmErr != nil {
		if ctx.Err() != nil {
			entry.FailureKind = journal.FailureCancelled
			entry.Error = ctx.Err().Error()
			return rt.record(entry)
		}
		entry.LLMFailure = llmErr.Error()
	}
	entry.Source = cand.Source
	entry.Candidate = cand
	entry.FallbackUsed = cand.Source == classify.SourceFallback

	assigned, err := rt.Validator.Validate(cand)
	if err != nil {
		log.Error("validation failed", "source", cand.Source, "error", err)
		entry.FailureKind = failureKindFor(err)
		entry.Error = err.Error()
		return rt.record(entry)
	}
	entry.AssignedCode = assigned.String()

	reserved, err := rt.Allocator.Allocate(assigned.FileBase, filepath.Ext(path))
	if err != nil {
		log.Error("allocation failed", "code", assigned.String(), "error", err)
		entry.FailureKind = failureKindFor(err)
		entry.Error = err.Error()
		return rt.record(entry)
	}

	if err := rt.Allocator.Place(path, reserved); err != nil {
		log.Error("output write failed", "code", assigned.String(), "error", err)
		entry.FailureKind = journal.FailureWrite
		entry.Error = err.Error()
		return rt.record(entry)
	}

	entry.OutputName = filepath.Base(reserved)
	log.Info(
		"document classified",
		"code", assigned.String(),
		"output", entry.OutputName,
		"source", cand.Source,
		"confidence", cand.Confidence,
	)
	return rt.record(entry)
}

// classify runs the primary classifier and falls back on any
// classification-layer failure. The returned error, when non-nil, is the
// primary failure that the fallback recovered from; cancellation is
// surfaced through ctx rather than recovered.
func (rt *Runtime) classify(ctx context.Context, doc document.Input, log *slog.Logger) (*classify.Candidate, error) {
	if doc.Empty() {
		log.Warn("no extractable text, using fallback defaults")
		return rt.Fallback.Classify(doc), nil
	}

	prompt := prompts.Build(doc, rt.Store)
	cand, err := rt.LLM.Classify(ctx, prompt)
	if err == nil {
		return cand, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	log.Warn("primary classification failed, using fallback", "error", err)
	return rt.Fallback.Classify(doc), err
}

func failureKindFor(err error) journal.FailureKind {
	switch {
	case errors.Is(err, dmc.ErrUnknownSystem):
		return journal.FailureUnknown
	case errors.Is(err, dmc.ErrUnknownInfo):
		return journal.FailureInfo
	case errors.Is(err, dmc.ErrMalformedField):
		return journal.FailureMalformed
	case errors.Is(err, output.ErrExhausted):
		return journal.FailureExhausted
	default:
		return journal.FailureWrite
	}
}

// record appends the entry to the run log and mirrors it into the outcome
// history. Sink failures are logged, never propagated; losing one record
// must not fail the document it describes.
func (rt *Runtime) record(e journal.Entry) journal.Entry {
	if err := rt.Journal.Record(e); err != nil {
		rt.Logger.Error("run log append failed", "document", e.Document, "error", err)
	}
	if rt.History != nil {
		if err := rt.History.Insert(rt.BatchID.String(), e); err != nil {
			rt.Logger.Error("history insert failed", "document", e.Document, "error", err)
		}
	}
	return e
}
