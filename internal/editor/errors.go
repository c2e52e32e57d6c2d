package editor

import "errors"

var (
	// ErrCreateRefused is returned when the workflow rules forbid a new node,
	// such as a second Start node.
	ErrCreateRefused = errors.New("node creation refused")

	// ErrNoNativeInput is returned by SetValueByName for an input without a
	// literal value.
	ErrNoNativeInput = errors.New("input has no literal value")
)
