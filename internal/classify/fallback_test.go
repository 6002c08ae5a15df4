package classify_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dmcgen/internal/catalog"
	"dmcgen/internal/classify"
	"dmcgen/internal/document"
)

func buildStore(t *testing.T, sns, info string) *catalog.Store {
	t.Helper()
	dir := t.TempDir()

	snsPath := filepath.Join(dir, "sns.json")
	if err := os.WriteFile(snsPath, []byte(sns), 0644); err != nil {
		t.Fatalf("write sns fixture: %v", err)
	}

	opts := catalog.LoadOptions{SNSSources: []string{snsPath}}
	if info != "" {
		infoPath := filepath.Join(dir, "info_codes.json")
		if err := os.WriteFile(infoPath, []byte(info), 0644); err != nil {
			t.Fatalf("write info fixture: %v", err)
		}
		opts.InfoCodesJSON = infoPath
	}

	store, err := catalog.Load(opts, discard())
	if err != nil {
		t.Fatalf("load fixture catalogs: %v", err)
	}
	return store
}

const fallbackSNS = `{
  "Chapters": [
    {
      "System": "21",
      "Title": "Air Conditioning",
      "Subsystems": [{"Subsystem": "10", "Title": "Compression"}]
    },
    {
      "System": "24",
      "Title": "Electrical Power",
      "Subsystems": [
        {"Subsystem": "00", "Title": "General"},
        {"Subsystem": "10", "Title": "Generator Drive"}
      ]
    }
  ]
}`

const fallbackInfo = `{
  "040": {"type": "descript", "description": "Description of how it is made"},
  "420": {"type": "fault", "description": "Fault reports"},
  "520": {"type": "proced", "description": "Remove procedures"}
}`

func TestFallbackKeywordOverlap(t *testing.T) {
	store := buildStore(t, fallbackSNS, fallbackInfo)
	fb := classify.NewFallback(store)

	doc := document.Input{
		Name:     "gen.md",
		Headings: "Generator Drive Removal",
		Body:     "Remove the electrical power generator drive. Procedure steps follow.",
	}

	cand := fb.Classify(doc)

	if cand.Source != classify.SourceFallback {
		t.Errorf("source: got %q", cand.Source)
	}
	if cand.System != "24" {
		t.Errorf("system: got %q, want 24", cand.System)
	}
	if cand.Subsystem != "10" {
		t.Errorf("subsystem: got %q, want 10", cand.Subsystem)
	}
	if cand.InfoCode != "520" {
		t.Errorf("info code: got %q, want 520", cand.InfoCode)
	}
	// System score 2 (electrical, power in body) plus info score 1:
	// 5 + round(55 * 3/13) = 18.
	if cand.Confidence != 18 {
		t.Errorf("confidence: got %d, want 18", cand.Confidence)
	}
	if cand.Disassembly != "00" || cand.DisassemblyVariant != "A" || cand.InfoVariant != "A" {
		t.Errorf("defaults: got %q %q %q", cand.Disassembly, cand.DisassemblyVariant, cand.InfoVariant)
	}
}

func TestFallbackDeterministic(t *testing.T) {
	store := buildStore(t, fallbackSNS, fallbackInfo)
	fb := classify.NewFallback(store)

	doc := document.Input{
		Headings: "Fault Isolation",
		Body:     "Symptom tables and remedy steps for electrical power failure diagnosis.",
	}

	first := fb.Classify(doc)
	second := fb.Classify(doc)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated classification differs:\n%+v\n%+v", first, second)
	}
}

func TestFallbackEmptyDocument(t *testing.T) {
	store := buildStore(t, fallbackSNS, fallbackInfo)
	fb := classify.NewFallback(store)

	cand := fb.Classify(document.Input{Name: "blank.txt"})

	if cand.System != catalog.UnspecifiedSystem {
		t.Errorf("system: got %q, want unspecified", cand.System)
	}
	if cand.Subsystem != catalog.UnspecifiedSubsystem {
		t.Errorf("subsystem: got %q, want unspecified", cand.Subsystem)
	}
	if cand.InfoCode != catalog.UnspecifiedInfo {
		t.Errorf("info code: got %q, want unspecified", cand.InfoCode)
	}
	if cand.Confidence != 5 {
		t.Errorf("confidence: got %d, want floor of 5", cand.Confidence)
	}
	if cand.Reasoning == "" {
		t.Error("reasoning must state why the defaults were chosen")
	}
}

func TestFallbackTieBreaksByCatalogOrder(t *testing.T) {
	sns := `{
	  "Chapters": [
	    {"System": "29", "Title": "Hydraulic Pump"},
	    {"System": "25", "Title": "Hydraulic Pump"}
	  ]
	}`
	store := buildStore(t, sns, "")
	fb := classify.NewFallback(store)

	doc := document.Input{Body: "Inspect the hydraulic pump housing."}

	cand := fb.Classify(doc)
	// Identical scores resolve to the first entry in sorted catalog order.
	if cand.System != "25" {
		t.Errorf("system: got %q, want 25", cand.System)
	}
}

func TestFallbackHeadingOutweighsBody(t *testing.T) {
	sns := `{
	  "Chapters": [
	    {"System": "21", "Title": "Conditioning"},
	    {"System": "24", "Title": "Electrical"}
	  ]
	}`
	store := buildStore(t, sns, "")
	fb := classify.NewFallback(store)

	doc := document.Input{
		Headings: "Electrical Inspection",
		Body:     "conditioning conditioning conditioning conditioning conditioning",
	}

	cand := fb.Classify(doc)
	// One heading match scores ten; repeated body mentions of the same
	// token still score one.
	if cand.System != "24" {
		t.Errorf("system: got %q, want 24", cand.System)
	}
}
