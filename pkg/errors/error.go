// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown errors
//   - Configuration errors (100-199): Invalid run parameters, version mismatches
//   - History errors (200-299): Not enough price history for an indicator or strategy
//   - Strategy errors (300-399): Unsupported variants, missing externally supplied inputs
//   - Ledger errors (400-499): Broken balance transition preconditions
//   - Feed errors (500-599): Failures reading from a price feed
//   - Backtest errors (600-699): Engine state and result writing errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidFee, "fee must be in [0, 1)")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", period)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeFeedFailed, "failed to read next candle", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeInvalidConfiguration) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// An InsufficientHistoryError anywhere in the chain reports ErrCodeInsufficientHistory.
// Returns ErrCodeUnknown if no coded error is found.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var h *InsufficientHistoryError
	if errors.As(err, &h) {
		return ErrCodeInsufficientHistory
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsInvalidConfiguration reports whether err is any of the configuration errors (100-199).
func IsInvalidConfiguration(err error) bool {
	code := GetCode(err)

	return code >= ErrCodeInvalidConfiguration && code < ErrCodeInsufficientHistory
}

// InsufficientHistoryError is returned when a price sequence is shorter than the
// minimum window an indicator or strategy needs.
type InsufficientHistoryError struct {
	Required int    // Minimum number of samples required
	Actual   int    // Number of samples available
	Message  string // Human-readable message
}

// NewInsufficientHistoryError creates a new InsufficientHistoryError.
func NewInsufficientHistoryError(required, actual int, message string) *InsufficientHistoryError {
	return &InsufficientHistoryError{
		Required: required,
		Actual:   actual,
		Message:  message,
	}
}

// NewInsufficientHistoryErrorf creates a new InsufficientHistoryError with a formatted message.
func NewInsufficientHistoryErrorf(required, actual int, format string, args ...any) *InsufficientHistoryError {
	return &InsufficientHistoryError{
		Required: required,
		Actual:   actual,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("[%d] %s: need %d samples, got %d", ErrCodeInsufficientHistory, e.Message, e.Required, e.Actual)
}

// IsInsufficientHistoryError checks if an error is an InsufficientHistoryError.
func IsInsufficientHistoryError(err error) bool {
	var insufficientErr *InsufficientHistoryError

	return errors.As(err, &insufficientErr)
}
