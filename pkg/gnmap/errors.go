package gnmap

import "errors"

// Sentinel errors for scan-file loading failures.
// Callers should use errors.Is() to check for these.
var (
	// ErrMalformedRecord indicates a Host: line with fewer than two
	// whitespace-separated fields, so no address could be read.
	ErrMalformedRecord = errors.New("gnmap: malformed host record")

	// ErrDuplicateSegment indicates two input files derived the same
	// segment name. Surfaced as fatal under strict mode.
	ErrDuplicateSegment = errors.New("gnmap: duplicate segment name")
)
