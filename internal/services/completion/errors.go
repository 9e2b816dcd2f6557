package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/openai/openai-go/v3"
)

// APIError represents a non-success answer from the completion API
type APIError struct {
	Message    string
	Type       string
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Details returns the diagnostic payload surfaced to callers with a failed generation
func (e *APIError) Details() map[string]any {
	details := map[string]any{
		"status":  e.StatusCode,
		"message": e.Message,
	}
	if e.Type != "" {
		details["type"] = e.Type
	}
	if e.Code != "" {
		details["code"] = e.Code
	}
	return details
}

// ExtractAPIError converts an SDK error into an APIError, or returns nil when err
// did not come from an HTTP response.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var already *APIError
	if errors.As(err, &already) {
		return already
	}

	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return nil
	}

	apiErr := &APIError{
		StatusCode: sdkErr.StatusCode,
		Message:    sdkErr.Message,
		Type:       sdkErr.Type,
		Code:       sdkErr.Code,
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("completion API returned status %d", sdkErr.StatusCode)
	}
	return apiErr
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return apiErr.StatusCode == 429 && apiErr.Code != "insufficient_quota"
	}
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return apiErr.Code == "insufficient_quota" || apiErr.StatusCode == 402
	}
	return false
}

// Reason classifies a completion failure for metrics and error details
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case isTimeout(err):
		return "timeout"
	case IsQuotaError(err):
		return "quota"
	case IsRateLimitError(err):
		return "rate_limited"
	case ExtractAPIError(err) != nil:
		return "api_error"
	default:
		return "unreachable"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
