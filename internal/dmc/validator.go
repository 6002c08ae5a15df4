package dmc

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dmcgen/internal/catalog"
	"dmcgen/internal/classify"
	"dmcgen/internal/config"
)

// AssignedCode is a fully validated, formatted code plus the output base
// name derived from it. No partially-formed code ever reaches this type.
type AssignedCode struct {
	Code Code
	// FileBase is the output filename without extension: the code string.
	FileBase string
}

// String returns the formatted code string.
func (a AssignedCode) String() string {
	return a.Code.String()
}

var (
	assemblyPattern = regexp.MustCompile(`^[0-9A-Z]{4}$`)
	variantPattern  = regexp.MustCompile(`^[A-Z]$`)
	locationPattern = regexp.MustCompile(`^[A-Z]$`)
	infoPattern     = regexp.MustCompile(`^[0-9A-Z]{3}$`)
)

// Validator checks candidates against the catalogs and composes final
// codes using the configured prefix fields. Pure check-then-format; it
// never mutates catalogs or candidates.
type Validator struct {
	store *catalog.Store
	cfg   config.CodeConfig
}

// NewValidator creates a validator over the loaded catalogs and the
// batch code configuration.
func NewValidator(store *catalog.Store, cfg config.CodeConfig) *Validator {
	return &Validator{store: store, cfg: cfg}
}

// Validate resolves the candidate's fields against the catalogs and
// returns the assigned code. Fails with ErrUnknownSystem, ErrUnknownInfo,
// or ErrMalformedField.
func (v *Validator) Validate(cand *classify.Candidate) (*AssignedCode, error) {
	system, err := padNumeric("system", cand.System, 2)
	if err != nil {
		return nil, err
	}
	subsystem, err := padNumeric("subsystem", cand.Subsystem, 2)
	if err != nil {
		return nil, err
	}
	disassembly, err := padNumeric("disassembly", cand.Disassembly, 2)
	if err != nil {
		return nil, err
	}

	info := strings.ToUpper(cand.InfoCode)
	if allDigits(info) && len(info) < 3 {
		info = pad(info, 3)
	}
	if err := matchField("info code", info, infoPattern); err != nil {
		return nil, err
	}

	assembly := orDefault(cand.Assembly, v.cfg.Assembly)
	if err := matchField("assembly", assembly, assemblyPattern); err != nil {
		return nil, err
	}

	disVariant := strings.ToUpper(orDefault(cand.DisassemblyVariant, "A"))
	if err := matchField("disassembly variant", disVariant, variantPattern); err != nil {
		return nil, err
	}

	infoVariant := strings.ToUpper(orDefault(cand.InfoVariant, "A"))
	if err := matchField("info variant", infoVariant, variantPattern); err != nil {
		return nil, err
	}

	location := strings.ToUpper(orDefault(cand.ItemLocation, v.cfg.ItemLocation))
	if err := matchField("item location", location, locationPattern); err != nil {
		return nil, err
	}

	if _, ok := v.store.LookupSystem(system); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSystem, system)
	}
	if _, ok := v.store.LookupSubsystem(system, subsystem); !ok {
		return nil, fmt.Errorf("%w: %s-%s", ErrUnknownSystem, system, subsystem)
	}
	if _, ok := v.store.LookupInfo(info); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInfo, info)
	}

	code := Code{
		ModelIdent:         v.cfg.ModelIdent,
		SystemDiff:         v.cfg.SystemDiff,
		System:             system,
		Subsystem:          subsystem,
		Assembly:           assembly,
		Disassembly:        disassembly,
		DisassemblyVariant: disVariant,
		InfoCode:           info,
		InfoVariant:        infoVariant,
		ItemLocation:       location,
	}

	return &AssignedCode{Code: code, FileBase: code.String()}, nil
}

// padNumeric zero-pads a numeric field to width. Non-numeric or overlong
// values are malformed, never silently corrected.
func padNumeric(name, value string, width int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !allDigits(value) || len(value) > width {
		return "", fmt.Errorf("%w: %s %q is not a %d-digit numeric field", ErrMalformedField, name, value, width)
	}
	return pad(value, width), nil
}

func matchField(name, value string, pattern *regexp.Regexp) error {
	if err := validation.Validate(value, validation.Required, validation.Match(pattern)); err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrMalformedField, name, value, err)
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
