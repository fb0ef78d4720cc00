package telegram

import (
	"errors"
	"fmt"
)

// APIError represents a structured Telegram Bot API error response.
type APIError struct {
	ErrorCode   int    // HTTP-level error code from Telegram (e.g., 400, 403, 429)
	Description string // Human-readable error description
	RetryAfter  int    // Seconds to wait before retrying (only for 429)
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram API error %d: %s (retry_after=%ds)", e.ErrorCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// IsBotBlocked reports a 403: the bot was removed from the chat or blocked.
func IsBotBlocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == 403
}

// GetRetryAfter extracts the retry_after seconds from a 429 error.
// Returns 0 if the error is not a 429 or has no retry_after.
func GetRetryAfter(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == 429 {
		return apiErr.RetryAfter
	}
	return 0
}
