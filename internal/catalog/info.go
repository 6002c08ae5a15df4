package catalog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
)

// infoLinePattern matches the line-delimited text form:
// a 3-character code, a category word, then the description.
var infoLinePattern = regexp.MustCompile(`^([0-9A-Z]{3})\s+([a-z]+)\s+(.*)$`)

type infoCodeEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// parseInfoCodesJSON reads the preferred JSON form: an object mapping
// code to {type, description}.
func parseInfoCodesJSON(path string) ([]InfoCode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	var raw map[string]infoCodeEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(raw))
	for code := range raw {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	info := make([]InfoCode, 0, len(codes))
	for _, code := range codes {
		info = append(info, InfoCode{
			Code:        code,
			Category:    raw[code].Type,
			Description: raw[code].Description,
		})
	}
	return info, nil
}

// parseInfoCodesText reads the fallback line-delimited form. Lines that
// do not match the pattern are skipped; both forms resolve to the same
// in-memory shape.
func parseInfoCodesText(path string) ([]InfoCode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	defer f.Close()

	var info []InfoCode
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := infoLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		info = append(info, InfoCode{
			Code:        m[1],
			Category:    m[2],
			Description: m[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	sort.Slice(info, func(i, j int) bool {
		return info[i].Code < info[j].Code
	})
	return info, nil
}
