package client

import (
	"fmt"
	"net/http"
)

// Kind classifies a failed call for presentation
type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindInvalidRequest   Kind = "invalid_request"
	KindGenerationFailed Kind = "generation_failed"
	KindUnknown          Kind = "unknown"
)

// Error is returned for every failed call: non-2xx responses, transport failures and
// client-side validation failures. Status is zero when no response was received.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// UserMessage is a short message suitable for showing to an end user
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindInvalidRequest:
		if e.Message != "" {
			return "Please check your input: " + e.Message
		}
		return "Please check your input and try again."
	case KindGenerationFailed:
		return "We couldn't generate content right now. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// transportKind classifies a call that produced no usable response. A generate call
// that times out counts as a failed generation.
func transportKind(generate bool) Kind {
	if generate {
		return KindGenerationFailed
	}
	return KindUnknown
}

func classify(status int, generate bool) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusBadRequest:
		return KindInvalidRequest
	case generate && status >= http.StatusInternalServerError:
		return KindGenerationFailed
	default:
		return KindUnknown
	}
}
