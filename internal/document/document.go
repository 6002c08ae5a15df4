// Package document models the per-document input record and the text
// extraction seam.
package document

import "strings"

// MaxPromptChars caps the combined heading+body length used in any prompt.
// The cap is a hard truncation of the body, never a summarization; headings
// are always included whole.
const MaxPromptChars = 8000

// Input is the immutable per-document record handed to the pipeline.
// Produced once per document and never mutated.
type Input struct {
	Name     string
	Path     string
	Headings string
	Body     string
}

// CombinedLen returns the total character count of headings and body.
func (in Input) CombinedLen() int {
	return len(in.Headings) + len(in.Body)
}

// Empty reports whether the document yielded no extractable text.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Headings) == "" && strings.TrimSpace(in.Body) == ""
}

// Truncated returns a copy whose body is cut so the combined length fits
// MaxPromptChars. Headings longer than the cap leave no room for body.
func (in Input) Truncated() Input {
	if in.CombinedLen() <= MaxPromptChars {
		return in
	}

	budget := MaxPromptChars - len(in.Headings)
	if budget < 0 {
		budget = 0
	}
	out := in
	out.Body = in.Body[:budget]
	return out
}
