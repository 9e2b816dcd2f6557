package client

import (
	"errors"
	"strings"

	"github.com/benvon/sparkreply/internal/validation"
)

// ValidateHandle reports whether handle is a usable X username
func ValidateHandle(handle string) error {
	if !validation.IsValidHandle(handle) {
		return invalid("handle", "must be 1-15 letters, digits or underscores and not all digits")
	}
	return nil
}

// ValidateTweetURL reports whether u points at a single post
func ValidateTweetURL(u string) error {
	if !validation.IsValidPostURL(strings.TrimSpace(u)) {
		return invalid("tweet_url", "must be a twitter.com or x.com status URL")
	}
	return nil
}

// Validate applies the server's rules for ct to a copy of req, so invalid input is
// rejected before a network round trip.
func Validate(ct ContentType, req GenerationRequest) error {
	req.ContentType = ct
	req.WritingStyleHandles = append([]string(nil), req.WritingStyleHandles...)

	err := validation.ValidateGenerationRequest(&req)
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &Error{
			Kind:    KindInvalidRequest,
			Code:    "invalid_request",
			Message: err.Error(),
			Details: map[string]any{"fields": fields},
		}
	}
	return &Error{Kind: KindInvalidRequest, Code: "invalid_request", Message: err.Error()}
}

func invalid(field, message string) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Code:    "invalid_request",
		Message: field + ": " + message,
		Details: map[string]any{"fields": validation.Errors{{Field: field, Message: message}}},
	}
}
