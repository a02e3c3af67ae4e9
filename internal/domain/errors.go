package domain

import "errors"

var (
	// ErrInvalidEntry is returned for malformed whitelist entries.
	ErrInvalidEntry = errors.New("invalid whitelist entry")
	// ErrInvalidRule is returned for rules with unknown enumerations.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrInvalidOptions is returned for out-of-range option values.
	ErrInvalidOptions = errors.New("invalid options")
)
