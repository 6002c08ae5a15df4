package journal

import (
	"time"

	"dmcgen/internal/classify"
)

// FailureKind labels why a document could not be classified or persisted.
type FailureKind string

const (
	FailureExtract   FailureKind = "extract_failed"
	FailureUnknown   FailureKind = "unknown_system_code"
	FailureInfo      FailureKind = "unknown_info_code"
	FailureMalformed FailureKind = "malformed_field"
	FailureWrite     FailureKind = "output_write_error"
	FailureExhausted FailureKind = "duplicate_allocation_exhausted"
	FailureCancelled FailureKind = "cancelled"
)

// Header opens a run log with the batch identity and data source summary.
type Header struct {
	BatchID     string    `json:"batch_id"`
	StartedAt   time.Time `json:"started_at"`
	SNSSources  []string  `json:"sns_sources"`
	InfoSource  string    `json:"info_source,omitempty"`
	SystemCount int       `json:"system_count"`
	InfoCount   int       `json:"info_count"`
	Conflicts   []string  `json:"sns_conflicts,omitempty"`
}

// Entry is one immutable per-document record: the audit trail for manual
// review of low-confidence or fallback-sourced assignments. Entries are
// appended in completion order, never submission order.
type Entry struct {
	Document     string              `json:"document"`
	HeadingChars int                 `json:"heading_chars"`
	BodyChars    int                 `json:"body_chars"`
	TotalChars   int                 `json:"total_chars"`
	Source       classify.Source     `json:"source,omitempty"`
	Candidate    *classify.Candidate `json:"candidate,omitempty"`
	AssignedCode string              `json:"assigned_code,omitempty"`
	OutputName   string              `json:"output_name,omitempty"`
	FallbackUsed bool                `json:"fallback_used,omitempty"`
	LLMFailure   string              `json:"llm_failure,omitempty"`
	FailureKind  FailureKind         `json:"failure_kind,omitempty"`
	Error        string              `json:"error,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}
