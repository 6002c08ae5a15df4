// Package catalog loads and indexes the controlled vocabularies that bound
// valid classification output: the system/subsystem numbering catalog (SNS)
// and the information code catalog.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Codes every loaded catalog accepts regardless of source content. The
// fallback classifier emits these when nothing matches; they mark an
// assignment as unresolved rather than wrong.
const (
	UnspecifiedSystem    = "00"
	UnspecifiedSubsystem = "00"
	UnspecifiedInfo      = "000"
)

// Prompt excerpts are capped per info code category; more entries inflate
// the prompt faster than they improve selection accuracy.
const MaxExcerptPerCategory = 30

// Categories in the order they appear in prompt excerpts.
var ExcerptCategories = []string{"proced", "descript", "fault", "process", "sched"}

// Subsystem is one subsystem entry under a system.
type Subsystem struct {
	Code       string
	Title      string
	Definition string
}

// System is one SNS system entry with its ordered subsystems.
type System struct {
	Code       string
	Title      string
	Definition string
	Subsystems []Subsystem
}

// InfoCode is one information code entry.
type InfoCode struct {
	Code        string
	Category    string
	Description string
}

// Conflict records a system definition overwritten during merge.
type Conflict struct {
	Code           string
	KeptSource     string
	OverrodeSource string
}

// CategoryGroup holds the prompt excerpt entries for one category.
type CategoryGroup struct {
	Category string
	Codes    []InfoCode
}

// LoadOptions names the catalog source files to load. SNSSources must list
// at least one path; the info code catalog is read from the JSON form when
// present, falling back to the line-delimited text form.
type LoadOptions struct {
	SNSSources    []string
	InfoCodesJSON string
	InfoCodesText string
}

// Store indexes the merged catalogs. Read-only after Load; safe for
// concurrent use without locking.
type Store struct {
	systems   []System
	sysIndex  map[string]int
	info      []InfoCode
	infoIndex map[string]int
	conflicts []Conflict
}

// Load parses and merges the named catalog sources. Later SNS sources win
// on conflicting system codes; every overwrite is flagged and logged.
// Entries are held sorted by code so prompt excerpts and tie-breaking are
// deterministic across runs.
func Load(opts LoadOptions, logger *slog.Logger) (*Store, error) {
	if len(opts.SNSSources) == 0 {
		return nil, ErrNoSources
	}

	s := &Store{
		sysIndex:  make(map[string]int),
		infoIndex: make(map[string]int),
	}

	merged := make(map[string]System)
	origin := make(map[string]string)

	for _, src := range opts.SNSSources {
		systems, err := parseSNSFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSource, filepath.Base(src), err)
		}

		for _, sys := range systems {
			if prev, ok := origin[sys.Code]; ok && prev != filepath.Base(src) {
				c := Conflict{
					Code:           sys.Code,
					KeptSource:     filepath.Base(src),
					OverrodeSource: prev,
				}
				s.conflicts = append(s.conflicts, c)
				logger.Warn(
					"sns definition overwritten",
					"code", sys.Code,
					"kept", c.KeptSource,
					"overrode", c.OverrodeSource,
				)
			}
			merged[sys.Code] = sys
			origin[sys.Code] = filepath.Base(src)
		}

		logger.Info("sns source loaded", "source", filepath.Base(src), "systems", len(systems))
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no system entries after merging %d sources", ErrEmpty, len(opts.SNSSources))
	}

	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		s.sysIndex[code] = len(s.systems)
		s.systems = append(s.systems, merged[code])
	}

	info, err := loadInfoCodes(opts.InfoCodesJSON, opts.InfoCodesText)
	if err != nil {
		return nil, err
	}
	s.info = info
	for i, ic := range s.info {
		s.infoIndex[ic.Code] = i
	}

	logger.Info("catalogs loaded", "systems", len(s.systems), "info_codes", len(s.info))
	return s, nil
}

func loadInfoCodes(jsonPath, textPath string) ([]InfoCode, error) {
	if jsonPath != "" {
		if _, err := os.Stat(jsonPath); err == nil {
			info, err := parseInfoCodesJSON(jsonPath)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSource, filepath.Base(jsonPath), err)
			}
			return info, nil
		}
	}

	if textPath != "" {
		if _, err := os.Stat(textPath); err == nil {
			info, err := parseInfoCodesText(textPath)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSource, filepath.Base(textPath), err)
			}
			return info, nil
		}
	}

	return nil, nil
}

// Systems returns all merged system entries in catalog order.
func (s *Store) Systems() []System {
	return s.systems
}

// InfoCodes returns all info code entries in catalog order.
func (s *Store) InfoCodes() []InfoCode {
	return s.info
}

// Conflicts returns the system codes whose definitions were overwritten
// during merge, for inclusion in the run log header.
func (s *Store) Conflicts() []Conflict {
	return s.conflicts
}

// LookupSystem returns the system entry for code. The unspecified system
// code resolves even when absent from the loaded sources.
func (s *Store) LookupSystem(code string) (System, bool) {
	if i, ok := s.sysIndex[code]; ok {
		return s.systems[i], true
	}
	if code == UnspecifiedSystem {
		return System{Code: UnspecifiedSystem, Title: "General"}, true
	}
	return System{}, false
}

// LookupSubsystem returns the subsystem entry under the given system.
// The unspecified subsystem code resolves for any known system.
func (s *Store) LookupSubsystem(system, sub string) (Subsystem, bool) {
	sys, ok := s.LookupSystem(system)
	if !ok {
		return Subsystem{}, false
	}
	for _, ss := range sys.Subsystems {
		if ss.Code == sub {
			return ss, true
		}
	}
	if sub == UnspecifiedSubsystem || sub == "0" {
		return Subsystem{Code: UnspecifiedSubsystem, Title: "General"}, true
	}
	return Subsystem{}, false
}

// LookupInfo returns the info code entry for code across all categories.
// The unspecified info code always resolves.
func (s *Store) LookupInfo(code string) (InfoCode, bool) {
	if i, ok := s.infoIndex[code]; ok {
		return s.info[i], true
	}
	if code == UnspecifiedInfo {
		return InfoCode{Code: UnspecifiedInfo, Category: "descript", Description: "Function, data for plans and description"}, true
	}
	return InfoCode{}, false
}

// LookupInfoIn returns the info code entry for code when it belongs to
// the given category.
func (s *Store) LookupInfoIn(category, code string) (InfoCode, bool) {
	ic, ok := s.LookupInfo(code)
	if !ok || ic.Category != category {
		return InfoCode{}, false
	}
	return ic, true
}

// InfoExcerpt returns up to max entries per category with definitions,
// in the fixed category order, preserving catalog order within each.
func (s *Store) InfoExcerpt(max int) []CategoryGroup {
	byCategory := make(map[string][]InfoCode)
	for _, ic := range s.info {
		if ic.Description == "" {
			continue
		}
		if len(byCategory[ic.Category]) < max {
			byCategory[ic.Category] = append(byCategory[ic.Category], ic)
		}
	}

	var groups []CategoryGroup
	for _, cat := range ExcerptCategories {
		if codes, ok := byCategory[cat]; ok {
			groups = append(groups, CategoryGroup{Category: cat, Codes: codes})
		}
	}
	return groups
}
