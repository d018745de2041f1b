// Package errors provides unified error types for analyzer and server failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError represents parameter validation errors
type ValidationError struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Parameter, e.Message)
}

// TimeoutError represents operation timeout errors
type TimeoutError struct {
	Operation string        `json:"operation"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Cause     error         `json:"cause,omitempty"`
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error for %s operation (timeout: %v)", e.Operation, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ProcessError represents analyzer process errors
type ProcessError struct {
	Command string `json:"command"`
	Cause   error  `json:"cause,omitempty"`
	Type    string `json:"type"` // "spawn", "exit", "output"
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process error (%s): %s - %v", e.Type, e.Command, e.Cause)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// Error constructors

// NewValidationError creates a new validation error for the specified parameter
func NewValidationError(parameter, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Message:   message,
	}
}

// NewTimeoutError creates a new timeout error for the specified operation
func NewTimeoutError(operation string, timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Timeout:   timeout,
		Cause:     cause,
	}
}

// NewProcessError creates a new process error for analyzer invocations
func NewProcessError(command, errorType string, cause error) *ProcessError {
	return &ProcessError{
		Command: command,
		Type:    errorType,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with operation context for better error messages
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// Error classification functions

// IsValidationError checks if the error is (or wraps) a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsTimeoutError checks if the error is a timeout-related error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var target *TimeoutError
	if stderrors.As(err, &target) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "context canceled")
}

// IsProcessError checks if the error is (or wraps) an analyzer process error
func IsProcessError(err error) bool {
	var target *ProcessError
	return stderrors.As(err, &target)
}
