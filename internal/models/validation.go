package models

import (
	"fmt"
	"strings"
)

// FieldError associates a validation failure with the field that caused it.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects field-level validation failures.
type ValidationErrors struct {
	errors []FieldError
}

// Add records a validation failure for a field.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	v.errors = append(v.errors, FieldError{Field: field, Message: err.Error()})
}

// AddMessage records a validation failure message for a field.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// Err returns an aggregate error, or nil when no failures were recorded.
func (v *ValidationErrors) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
