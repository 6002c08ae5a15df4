// Package dmc implements the data module code grammar and the validation
// of classification candidates against the loaded catalogs.
//
// Code string grammar (all numeric fields zero-padded):
//
//	DMC-{modelIdent}-{sysDiff}-{system:2}-{subsystem:2}-{assembly:4}-{disassembly:2}{variant:1}-{info:3}{infoVariant:1}-{itemLocation:1}
package dmc

import (
	"fmt"
	"regexp"
	"strings"
)

// Code holds the fully resolved fields of a data module code.
type Code struct {
	ModelIdent         string
	SystemDiff         string
	System             string
	Subsystem          string
	Assembly           string
	Disassembly        string
	DisassemblyVariant string
	InfoCode           string
	InfoVariant        string
	ItemLocation       string
}

// String formats the code per the grammar.
func (c Code) String() string {
	return fmt.Sprintf(
		"DMC-%s-%s-%s-%s-%s-%s%s-%s%s-%s",
		c.ModelIdent, c.SystemDiff,
		c.System, c.Subsystem, c.Assembly,
		c.Disassembly, c.DisassemblyVariant,
		c.InfoCode, c.InfoVariant,
		c.ItemLocation,
	)
}

var codePattern = regexp.MustCompile(
	`^DMC-([A-Z0-9]{1,14})-([A-Z]{1,4})-(\d{2})-(\d{2})-([0-9A-Z]{4})-(\d{2})([A-Z])-([0-9A-Z]{3})([A-Z])-([A-Z])$`,
)

// Parse reads a formatted code string back into its fields. Formatting a
// Code and re-parsing it yields the same fields.
func Parse(s string) (Code, error) {
	m := codePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Code{}, fmt.Errorf("%w: %q does not match code grammar", ErrMalformedField, s)
	}

	return Code{
		ModelIdent:         m[1],
		SystemDiff:         m[2],
		System:             m[3],
		Subsystem:          m[4],
		Assembly:           m[5],
		Disassembly:        m[6],
		DisassemblyVariant: m[7],
		InfoCode:           m[8],
		InfoVariant:        m[9],
		ItemLocation:       m[10],
	}, nil
}
