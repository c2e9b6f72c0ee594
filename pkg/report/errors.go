package report

import "errors"

// ErrInvalidColor indicates a palette value that is not #rgb or
// #rrggbb hex. Callers should use errors.Is() to check for it.
var ErrInvalidColor = errors.New("report: invalid color")
