package dmc

import "errors"

// Validation failures. Non-fatal per document: the candidate is rejected,
// the document marked failed, and the batch continues.
var (
	ErrUnknownSystem  = errors.New("system/subsystem pair not in catalog")
	ErrUnknownInfo    = errors.New("info code not in catalog")
	ErrMalformedField = errors.New("malformed code field")
)
