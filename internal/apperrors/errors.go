/**
 * Error taxonomy for the signup service.
 *
 * Validation failures are rejected before the extraction pipeline runs,
 * recognition failures surface to the client as a single generic notice,
 * and per-field extraction misses are never errors at all (the pipeline
 * degrades to empty defaults).
 */

package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeRecognitionFailed Code = "RECOGNITION_FAILED"
	CodeStorageFailed     Code = "STORAGE_FAILED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
)

// Error is a structured service error with an optional cause.
type Error struct {
	Code      Code
	Message   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of err if it is (or wraps) an *Error, else "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Factory functions for the common cases.

func NewValidationError(field, message string) *Error {
	return &Error{
		Code:      CodeValidationFailed,
		Message:   message,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

func NewRecognitionError(stage string, cause error) *Error {
	return &Error{
		Code:      CodeRecognitionFailed,
		Message:   fmt.Sprintf("text recognition failed at stage: %s", stage),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"stage": stage,
		},
		Cause: cause,
	}
}

func NewStorageError(op string, cause error) *Error {
	return &Error{
		Code:      CodeStorageFailed,
		Message:   fmt.Sprintf("storage operation failed: %s", op),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"operation": op,
		},
		Cause: cause,
	}
}

func NewNotFoundError(kind, id string) *Error {
	return &Error{
		Code:      CodeNotFound,
		Message:   fmt.Sprintf("%s not found: %s", kind, id),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"kind": kind,
			"id":   id,
		},
	}
}

func NewConflictError(message string) *Error {
	return &Error{
		Code:      CodeConflict,
		Message:   message,
		Timestamp: time.Now(),
	}
}
