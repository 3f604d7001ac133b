package errors

import (
	stderrors "errors"
	"fmt"
)

// As is a passthrough to the standard library errors.As, so callers of this
// package do not need a second errors import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is a passthrough to the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// ErrorCode classifies a failure to the pipeline stage that produced it.
type ErrorCode string

const (
	// ErrCodeValidation indicates a missing or malformed run parameter,
	// detected before any stage executes.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeAcquisition indicates all branch checkout fallbacks were exhausted.
	ErrCodeAcquisition ErrorCode = "ACQUISITION"
	// ErrCodeBuild indicates a kind-specific prebuild step failed.
	ErrCodeBuild ErrorCode = "BUILD"
	// ErrCodePublish indicates an image build, tag, auth, or push failure.
	ErrCodePublish ErrorCode = "PUBLISH"
	// ErrCodeDeploy indicates a manifest apply failure or rollout timeout.
	ErrCodeDeploy ErrorCode = "DEPLOY"
	// ErrCodeVerification indicates the ingress endpoint never resolved
	// within the polling budget. Non-fatal on an otherwise successful deploy.
	ErrCodeVerification ErrorCode = "VERIFICATION"
	// ErrCodeConflict indicates a run was rejected because another run for
	// the same project is already active.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeInternal when err
// is not a StructuredError.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
