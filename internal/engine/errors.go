package engine

import "errors"

var (
	// ErrInvalidInput marks a malformed observation passed to a decision call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig marks policy settings that cannot drive a strategy.
	ErrInvalidConfig = errors.New("invalid config")
)
