package models

import "path/filepath"

// ChangeRef is the opaque identifier of the unit of work a loop runs against.
// It is supplied by the caller and validated against a fixed grammar so it is
// always safe to embed in filesystem paths.
type ChangeRef string

// Validate checks the ref against the ID grammar.
func (c ChangeRef) Validate() error {
	if !isValidChangeRef(string(c)) {
		return ErrInvalidChangeRef
	}
	return nil
}

func (c ChangeRef) String() string {
	return string(c)
}

func isValidChangeRef(value string) bool {
	if len(value) < 1 || len(value) > 64 {
		return false
	}
	for i, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '.':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ValidateWorkingRoot checks that the resolved filesystem root is usable as
// the base for all state reads and writes of a run.
func ValidateWorkingRoot(root string) error {
	if root == "" || !filepath.IsAbs(root) {
		return ErrInvalidWorkingRoot
	}
	return nil
}
