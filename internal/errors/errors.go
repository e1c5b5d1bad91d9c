package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the structured error type for wikisearch.
// It carries enough context for logging and for user presentation.
type AppError struct {
	// Code is the unique error code (e.g., "ERR_304_HTTP_STATUS").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Transport, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an AppError from an existing error.
// The error's message becomes the AppError message.
func Wrap(code string, err error) *AppError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AppError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// TransportError creates an error for a failed call to the wiki API.
// code must be one of the 3XX transport codes.
func TransportError(code, message string, cause error) *AppError {
	return New(code, message, cause)
}

// IndexNotFoundError reports that no index exists at location.
func IndexNotFoundError(location string) *AppError {
	return New(ErrCodeIndexNotFound, fmt.Sprintf("no index found at %s", location), nil).
		WithDetail("location", location).
		WithSuggestion("Run 'wikisearch build' to create it first")
}

// WriteConflictError reports that another writer holds the index location.
func WriteConflictError(location string, cause error) *AppError {
	return New(ErrCodeWriteConflict, fmt.Sprintf("index at %s is locked by another writer", location), cause).
		WithDetail("location", location).
		WithSuggestion("Wait for the running build to finish and try again")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AppError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AppError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsTransport reports whether err is (or wraps) a transport failure.
func IsTransport(err error) bool {
	return GetCategory(err) == CategoryTransport
}

// IsIndexNotFound reports whether err is (or wraps) a missing index.
func IsIndexNotFound(err error) bool {
	return GetCode(err) == ErrCodeIndexNotFound
}

// IsWriteConflict reports whether err is (or wraps) a write lock conflict.
func IsWriteConflict(err error) bool {
	return GetCode(err) == ErrCodeWriteConflict
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current run.
func IsFatal(err error) bool {
	if ae, ok := As(err); ok {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an AppError.
// Returns empty string if err does not wrap an AppError.
func GetCode(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AppError.
// Returns empty string if err does not wrap an AppError.
func GetCategory(err error) Category {
	if ae, ok := As(err); ok {
		return ae.Category
	}
	return ""
}
