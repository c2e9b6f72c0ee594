package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidValue indicates a flag was given a value outside its
	// accepted set.
	ErrInvalidValue = errors.New("config: invalid value")

	// ErrMissingRequired indicates a flag that must accompany another
	// was not provided.
	ErrMissingRequired = errors.New("config: missing required flag")
)
