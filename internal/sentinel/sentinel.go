package sentinel

import "errors"

// Dependency errors. Stores return these (optionally wrapped) and services
// translate them into domain errors once.
var (
	ErrNotFound    = errors.New("not found")
	ErrMalformed   = errors.New("malformed")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
