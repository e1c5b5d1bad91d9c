package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: a missing index error
	err := IndexNotFoundError("wiki_index")

	// When: formatting for the terminal
	out := FormatForCLI(err)

	// Then: message, hint and code are present
	assert.Contains(t, out, "Error: no index found at wiki_index")
	assert.Contains(t, out, "Hint: Run 'wikisearch build'")
	assert.Contains(t, out, "Code: ERR_207_INDEX_NOT_FOUND")
}

func TestFormatForCLI_ShowsDistinctCause(t *testing.T) {
	err := TransportError(ErrCodeNetworkUnavailable, "GET /space failed", errors.New("dial tcp: refused"))

	out := FormatForCLI(err)

	assert.Contains(t, out, "Cause: dial tcp: refused")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
	assert.NotContains(t, out, "Cause:")
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatForLog_AppError(t *testing.T) {
	err := New(ErrCodeHTTPStatus, "status 502", errors.New("bad gateway")).
		WithDetail("path", "/content").
		WithDetail("attempt", "1")

	attrs := FormatForLog(err)

	assert.Equal(t, []any{
		"error_code", ErrCodeHTTPStatus,
		"message", "status 502",
		"category", "TRANSPORT",
		"severity", "FATAL",
		"cause", "bad gateway",
		"detail_attempt", "1",
		"detail_path", "/content",
	}, attrs)
}

func TestFormatForLog_PlainError(t *testing.T) {
	assert.Equal(t, []any{"error", "boom"}, FormatForLog(errors.New("boom")))
	assert.Nil(t, FormatForLog(nil))
}
