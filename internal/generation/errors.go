package generation

import (
	"errors"
	"fmt"

	"github.com/benvon/sparkreply/internal/validation"
)

var (
	// ErrUnauthorized is returned when no verified identity accompanies the request
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRequest is returned when the request fails validation
	ErrInvalidRequest = errors.New("invalid request")
	// ErrGenerationFailed is returned when the completion provider could not produce text
	ErrGenerationFailed = errors.New("generation failed")
	// ErrPersistenceFailed marks a failed history write. It is logged, never returned to callers.
	ErrPersistenceFailed = errors.New("persistence failed")
)

// ValidationError lists the request fields that failed validation
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// Unwrap lets errors.Is match ErrInvalidRequest
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// InvalidField builds a ValidationError for a single field
func InvalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: validation.Errors{{Field: field, Message: message}}}
}

// GenerationError carries the provider diagnostics for a failed completion
type GenerationError struct {
	ContentType string
	Reason      string
	Details     map[string]any
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s (%s): %v", e.ContentType, e.Reason, e.Err)
}

// Is matches ErrGenerationFailed
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
