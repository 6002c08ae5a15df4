package catalog

import "errors"

// Catalog load failures. All are fatal to batch start: classification
// cannot proceed without at least one merged system entry.
var (
	ErrNoSources       = errors.New("no sns catalog sources selected")
	ErrMalformedSource = errors.New("malformed catalog source")
	ErrEmpty           = errors.New("catalog empty")
)
