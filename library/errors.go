package library

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is;
// the wrapped message carries the offending identifier.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnavailable     = errors.New("unavailable")
	ErrCorruptData     = errors.New("corrupt data")
	ErrIOFailure       = errors.New("io failure")
)
