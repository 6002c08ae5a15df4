// Package classify produces classification candidates for documents,
// either from the language model service or from the deterministic
// keyword fallback.
package classify

// Source identifies which classifier produced a candidate.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Candidate is an unvalidated classification result. Produced fresh per
// document and never mutated after validation. Assembly and ItemLocation
// may be empty, in which case the validator fills them from the configured
// defaults.
type Candidate struct {
	System             string `json:"system"`
	Subsystem          string `json:"subsystem"`
	Assembly           string `json:"assembly,omitempty"`
	Disassembly        string `json:"disassembly"`
	DisassemblyVariant string `json:"disassembly_variant"`
	InfoCode           string `json:"info_code"`
	InfoVariant        string `json:"info_variant"`
	ItemLocation       string `json:"item_location,omitempty"`
	Confidence         int    `json:"confidence"`
	Reasoning          string `json:"reasoning"`
	Source             Source `json:"source"`
}
