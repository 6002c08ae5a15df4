package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// The SNS sources are hand-maintained JSON files in three shapes:
// an array of table groups, an object keyed by group name, and an
// object with a System_categories list. parseSNSFile probes the shape
// and normalizes all three into []System.

type snsTableFile []struct {
	Tables []struct {
		SystemCode string `json:"system_code"`
		Title      string `json:"title"`
		Definition string `json:"definition"`
		Subsystems []struct {
			SubsystemCode string `json:"subsystem_code"`
			Title         string `json:"title"`
			Definition    string `json:"definition"`
		} `json:"subsystems"`
	} `json:"tables"`
}

type snsKeyedEntry struct {
	System     string `json:"System"`
	Title      string `json:"Title"`
	Definition string `json:"Definition"`
	Subsystems []struct {
		Subsystem  string `json:"Subsystem"`
		System     string `json:"System"`
		Title      string `json:"Title"`
		Definition string `json:"Definition"`
	} `json:"Subsystems"`
}

func parseSNSFile(path string) ([]System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty source")
	}

	if trimmed[0] == '[' {
		return parseSNSTables(trimmed)
	}
	if trimmed[0] == '{' {
		return parseSNSKeyed(trimmed)
	}
	return nil, fmt.Errorf("not a JSON document")
}

func parseSNSTables(data []byte) ([]System, error) {
	var file snsTableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	var systems []System
	for _, group := range file {
		for _, table := range group.Tables {
			if table.SystemCode == "" {
				continue
			}
			sys := System{
				Code:       table.SystemCode,
				Title:      table.Title,
				Definition: table.Definition,
			}
			for _, sub := range table.Subsystems {
				if code, ok := normalizeSubsystemCode(sub.SubsystemCode); ok {
					sys.Subsystems = append(sys.Subsystems, Subsystem{
						Code:       code,
						Title:      sub.Title,
						Definition: sub.Definition,
					})
				}
			}
			sortSubsystems(sys.Subsystems)
			systems = append(systems, sys)
		}
	}
	return systems, nil
}

func parseSNSKeyed(data []byte) ([]System, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	byCode := make(map[string]System)

	keys := make([]string, 0, len(root))
	for key := range root {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var entries []snsKeyedEntry
		if err := json.Unmarshal(root[key], &entries); err != nil {
			// Non-list values (metadata fields) are skipped, not fatal.
			continue
		}

		if key == "System_categories" {
			// Category files flatten: the category and each of its
			// subsystems are all top-level systems.
			for _, entry := range entries {
				if entry.System == "" {
					continue
				}
				byCode[entry.System] = System{Code: entry.System, Title: entry.Title}
				for _, sub := range entry.Subsystems {
					if sub.System == "" {
						continue
					}
					byCode[sub.System] = System{
						Code:       sub.System,
						Title:      sub.Title,
						Definition: sub.Definition,
					}
				}
			}
			continue
		}

		for _, entry := range entries {
			if entry.System == "" {
				continue
			}
			sys := System{
				Code:       entry.System,
				Title:      entry.Title,
				Definition: entry.Definition,
			}
			for _, sub := range entry.Subsystems {
				raw := sub.Subsystem
				if raw == "" {
					raw = sub.System
				}
				if code, ok := normalizeSubsystemCode(raw); ok {
					sys.Subsystems = append(sys.Subsystems, Subsystem{
						Code:       code,
						Title:      sub.Title,
						Definition: sub.Definition,
					})
				}
			}
			sortSubsystems(sys.Subsystems)
			byCode[entry.System] = sys
		}
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	systems := make([]System, 0, len(codes))
	for _, code := range codes {
		systems = append(systems, byCode[code])
	}
	return systems, nil
}

// normalizeSubsystemCode strips dashes and rejects range placeholders
// like "20 thru 29" that appear in some maintained sources.
func normalizeSubsystemCode(raw string) (string, bool) {
	code := strings.ReplaceAll(raw, "-", "")
	if code == "" || strings.Contains(strings.ToLower(code), "thru") {
		return "", false
	}
	return code, true
}

func sortSubsystems(subs []Subsystem) {
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Code < subs[j].Code
	})
}
