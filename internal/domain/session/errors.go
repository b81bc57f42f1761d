package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNegativePossession = errors.New("possession number must not be negative")
)
