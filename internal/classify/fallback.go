package classify

import (
	"fmt"
	"math"
	"strings"

	"dmcgen/internal/catalog"
	"dmcgen/internal/document"
)

// Category detection keywords. Order matters: earlier categories win ties.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"proced", []string{
		"procedure", "step", "task", "perform", "install", "remove",
		"assemble", "disassemble", "prepare", "unpack", "setup",
		"execute", "how to",
	}},
	{"descript", []string{
		"description", "overview", "introduction", "component",
		"feature", "specification", "what is", "theory",
	}},
	{"fault", []string{
		"fault", "troubleshooting", "symptom", "remedy", "isolation",
		"failure", "error code", "diagnose",
	}},
}

// Heading matches are worth ten body matches when scoring systems;
// a system named in a title is a far stronger signal than one named in
// passing prose.
const headingWeight = 10

// Fallback is the deterministic keyword-overlap classifier used when the
// language model is unavailable or its answer is unusable. It never fails:
// empty input yields the unspecified code set at minimal confidence.
// Given identical document text and catalogs, two invocations produce
// byte-identical candidates.
type Fallback struct {
	store *catalog.Store
}

// NewFallback creates a fallback classifier over the loaded catalogs.
func NewFallback(store *catalog.Store) *Fallback {
	return &Fallback{store: store}
}

// Classify scores every catalog entry by case-insensitive token overlap
// with the document text and selects the highest-scoring system, subsystem,
// and info code. Ties break by catalog order (first entry wins).
func (f *Fallback) Classify(doc document.Input) *Candidate {
	headings := strings.ToLower(doc.Headings)
	body := strings.ToLower(doc.Body)
	fullText := headings + " " + body

	category := detectCategory(fullText)
	infoCode, infoScore := f.bestInfoCode(fullText, category)
	system, sysScore := f.bestSystem(headings, body)
	subsystem := f.bestSubsystem(system, headings, body)

	combined := sysScore + infoScore

	return &Candidate{
		System:             system,
		Subsystem:          subsystem,
		Disassembly:        "00",
		DisassemblyVariant: "A",
		InfoCode:           infoCode,
		InfoVariant:        "A",
		Confidence:         overlapConfidence(combined),
		Reasoning:          fallbackReasoning(category, system, infoCode, combined),
		Source:             SourceFallback,
	}
}

// overlapConfidence maps the combined overlap score onto [5,60]:
// 5 + round(55 * s/(s+10)). Monotonic in the score, floored at 5 for
// empty input, and capped well below typical model self-reports so the
// two confidence scales are never conflated. This mapping is a fixed
// contract; tests depend on its exact values.
func overlapConfidence(score int) int {
	if score <= 0 {
		return 5
	}
	s := float64(score)
	return 5 + int(math.Round(55*s/(s+10)))
}

func detectCategory(fullText string) string {
	best, bestScore := "", 0
	for _, ck := range categoryKeywords {
		score := 0
		for _, kw := range ck.keywords {
			if strings.Contains(fullText, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = ck.category, score
		}
	}
	return best
}

func (f *Fallback) bestInfoCode(fullText, category string) (string, int) {
	candidates := f.store.InfoCodes()

	if category != "" {
		var filtered []catalog.InfoCode
		for _, ic := range candidates {
			if ic.Category == category {
				filtered = append(filtered, ic)
			}
		}
		// An empty category bucket widens back to the full catalog.
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	best, bestScore := catalog.UnspecifiedInfo, 0
	for _, ic := range candidates {
		score := 0
		for _, token := range strings.Fields(strings.ToLower(ic.Description)) {
			if strings.Contains(fullText, token) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = ic.Code, score
		}
	}
	return best, bestScore
}

func (f *Fallback) bestSystem(headings, body string) (string, int) {
	best, bestScore := catalog.UnspecifiedSystem, 0
	for _, sys := range f.store.Systems() {
		score := titleScore(sys.Title, headings, body)
		if score > bestScore {
			best, bestScore = sys.Code, score
		}
	}
	return best, bestScore
}

func (f *Fallback) bestSubsystem(system, headings, body string) string {
	sys, ok := f.store.LookupSystem(system)
	if !ok {
		return catalog.UnspecifiedSubsystem
	}

	best, bestScore := catalog.UnspecifiedSubsystem, 0
	for _, sub := range sys.Subsystems {
		score := titleScore(sub.Title, headings, body)
		if score > bestScore {
			best, bestScore = sub.Code, score
		}
	}
	return best
}

func titleScore(title, headings, body string) int {
	score := 0
	for _, token := range strings.Fields(strings.ToLower(title)) {
		if strings.Contains(headings, token) {
			score += headingWeight
		}
		if strings.Contains(body, token) {
			score++
		}
	}
	return score
}

func fallbackReasoning(category, system, infoCode string, score int) string {
	if category == "" {
		category = "undetermined"
	}
	return fmt.Sprintf(
		"keyword overlap: category %s, system %s, info code %s, combined score %d",
		category, system, infoCode, score,
	)
}
