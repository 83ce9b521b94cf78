package models

import "errors"

// Validation errors for models
var (
	// Change errors
	ErrInvalidChangeRef = errors.New("change ref must be 1-64 lowercase letters, digits, dots, or dashes, starting with a letter or digit")

	// Loop errors
	ErrInvalidWorkingRoot   = errors.New("working root must be an absolute path")
	ErrInvalidMaxIterations = errors.New("max_iterations must be at least 1")
	ErrInvalidLoopStatus    = errors.New("invalid loop status")

	// Harness errors
	ErrInvalidHarnessKind = errors.New("harness kind must be one of claude, codex, copilot, stub")
	ErrEmptyPrompt        = errors.New("prompt is required")
)
