package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrValidation = errors.New("validation failed")
	ErrCacheMiss  = errors.New("cache miss")
)

// ValidationError reports a rejected input field.
// errors.Is(err, ErrValidation) matches any ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
