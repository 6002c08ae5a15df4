package output

import "errors"

// Allocation failures. Non-fatal per document but operationally
// significant; the batch driver surfaces them prominently.
var (
	ErrWrite     = errors.New("output namespace unwritable")
	ErrExhausted = errors.New("duplicate allocation exhausted")
)
