package analyzer

import "errors"

// Common errors returned by analyzer implementations.
var (
	// ErrAnalysisFailed is returned when analysis fails for a general reason.
	ErrAnalysisFailed = errors.New("failed to analyze journal text")

	// ErrCallFailed is returned when an external model invocation itself
	// fails (as opposed to returning an unparseable body, which is absorbed
	// by the placeholder fallback).
	ErrCallFailed = errors.New("external model call failed")

	// ErrInvalidConfig is returned when the analyzer configuration is invalid.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")
)
