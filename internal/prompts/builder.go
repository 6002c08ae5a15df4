// Package prompts renders the classification prompt sent to the language
// model. Build is a pure function of its inputs; identical document text
// and catalogs always produce identical prompts, which keeps the pipeline
// testable.
package prompts

import (
	"fmt"
	"strings"

	"dmcgen/internal/catalog"
	"dmcgen/internal/document"
)

// Build renders the classification prompt: instructions, the truncated
// document (headings always whole, body cut to the document cap), the
// catalog excerpt, and the output contract.
func Build(doc document.Input, store *catalog.Store) string {
	doc = doc.Truncated()

	headings := doc.Headings
	if strings.TrimSpace(headings) == "" {
		headings = "No headings."
	}
	body := doc.Body
	if strings.TrimSpace(body) == "" {
		body = "No content."
	}

	var b strings.Builder
	b.WriteString(classifyInstructions)
	b.WriteString("\n\nDOCUMENT TITLE/HEADINGS (COMPLETE):\n")
	b.WriteString(headings)
	fmt.Fprintf(&b, "\n\nDOCUMENT CONTENT (%d characters):\n", len(body))
	b.WriteString(body)
	b.WriteString("\n\n")
	writeSystemContext(&b, store)
	b.WriteString("\n\n")
	writeInfoContext(&b, store)
	b.WriteString("\n\n")
	b.WriteString(selectionRules)
	b.WriteString("\n\n")
	b.WriteString(outputContract)

	return b.String()
}

func writeSystemContext(b *strings.Builder, store *catalog.Store) {
	b.WriteString("VALID SYSTEM CODES AND SUBSYSTEMS:")
	for _, sys := range store.Systems() {
		if sys.Title == "" {
			continue
		}
		fmt.Fprintf(b, "\n%s: %s", sys.Code, sys.Title)
		for _, sub := range sys.Subsystems {
			// General subsystems add noise without narrowing the choice.
			if sub.Title == "" || sub.Code == "00" || sub.Code == "0" {
				continue
			}
			fmt.Fprintf(b, "\n  %s-%s: %s", sys.Code, sub.Code, sub.Title)
		}
	}
}

func writeInfoContext(b *strings.Builder, store *catalog.Store) {
	b.WriteString("VALID INFO CODES (use one of these exactly):")
	for _, group := range store.InfoExcerpt(catalog.MaxExcerptPerCategory) {
		fmt.Fprintf(b, "\n\n[%s]", strings.ToUpper(group.Category))
		for _, ic := range group.Codes {
			fmt.Fprintf(b, "\n%s: %s", ic.Code, ic.Description)
		}
	}
}
