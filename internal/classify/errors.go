package classify

import "errors"

// LLM-layer failures. All are recovered locally by the batch driver
// falling over to the deterministic classifier; none surface as a
// whole-document failure by themselves.
var (
	ErrUnavailable = errors.New("classification service unavailable")
	ErrTimeout     = errors.New("classification request timed out")
	ErrParse       = errors.New("classification response unusable")
)
