// Package errors provides structured error handling for wikisearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (index location, locks, disk)
//   - 3XX: Transport errors (wiki REST API)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index location and lock errors.
	CategoryStorage Category = "STORAGE"
	// CategoryTransport indicates failed calls to the wiki API.
	CategoryTransport Category = "TRANSPORT"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the current run must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a recoverable condition reported to the caller.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeCorruptIndex   = "ERR_205_CORRUPT_INDEX"
	ErrCodeIndexNotFound  = "ERR_207_INDEX_NOT_FOUND"
	ErrCodeWriteConflict  = "ERR_208_WRITE_CONFLICT"
	ErrCodeIndexBusy      = "ERR_209_INDEX_BUSY"

	// Transport errors (300-399)
	ErrCodeNetworkTimeout     = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeNetworkUnavailable = "ERR_302_NETWORK_UNAVAILABLE"
	ErrCodeHTTPStatus         = "ERR_304_HTTP_STATUS"
	ErrCodeMalformedResponse  = "ERR_305_MALFORMED_RESPONSE"
	ErrCodePaginationLimit    = "ERR_306_PAGINATION_LIMIT"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "304" from "ERR_304_HTTP_STATUS")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryTransport
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Transport failures and write conflicts abort an indexing run; a missing or
// busy index is reported to the caller and the process carries on.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexNotFound, ErrCodeIndexBusy:
		return SeverityWarning
	case ErrCodeCorruptIndex, ErrCodeWriteConflict:
		return SeverityFatal
	}

	if categoryFromCode(code) == CategoryTransport {
		return SeverityFatal
	}

	return SeverityError
}
