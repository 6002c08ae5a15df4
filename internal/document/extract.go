package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor produces the heading and body text of a document. Binary
// container formats plug in behind this interface; the engine itself only
// consumes plain text.
type Extractor interface {
	// Extract reads the document at path and returns its heading text and
	// body text separately.
	Extract(path string) (headings, body string, err error)

	// Supports reports whether this extractor handles the file extension.
	Supports(ext string) bool
}

// TextExtractor handles plain-text and Markdown documents. Lines starting
// with '#' are treated as headings, everything else as body, mirroring the
// heading/body split of richer extractors.
type TextExtractor struct{}

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Supports reports whether ext names a plain-text document type.
func (TextExtractor) Supports(ext string) bool {
	return textExtensions[strings.ToLower(ext)]
}

// Extract reads the file and splits heading lines from body lines.
func (TextExtractor) Extract(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read document: %w", err)
	}

	var headings, body []string
	for line := range strings.Lines(string(data)) {
		text := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			headings = append(headings, strings.TrimSpace(strings.TrimLeft(text, "# ")))
		} else {
			body = append(body, text)
		}
	}

	return strings.Join(headings, "\n"), strings.Join(body, "\n"), nil
}

// Read extracts path into an Input record using the first extractor that
// supports its extension.
func Read(path string, extractors ...Extractor) (Input, error) {
	ext := filepath.Ext(path)
	for _, ex := range extractors {
		if !ex.Supports(ext) {
			continue
		}
		headings, body, err := ex.Extract(path)
		if err != nil {
			return Input{}, err
		}
		return Input{
			Name:     filepath.Base(path),
			Path:     path,
			Headings: headings,
			Body:     body,
		}, nil
	}
	return Input{}, fmt.Errorf("no extractor for %s", ext)
}
