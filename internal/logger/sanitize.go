package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxHandleLength bounds user-supplied handles in logs
	MaxHandleLength = 64
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
	// MaxPreviewLength bounds prompt and completion previews in debug logs
	MaxPreviewLength = 500
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeHandle sanitizes a caller-supplied social handle
func SanitizeHandle(handle string) string {
	return SanitizeString(handle, MaxHandleLength)
}

// SanitizeString removes control characters, repairs UTF-8 and truncates to maxLength runes.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	count := 0
	for _, r := range s {
		if !unicode.IsPrint(r) && r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if count == maxLength {
			builder.WriteString("...")
			break
		}
		builder.WriteRune(r)
		count++
	}
	return builder.String()
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// Preview returns a single-line, bounded excerpt of a prompt or completion.
func Preview(content string) string {
	return SanitizeString(strings.Join(strings.Fields(content), " "), MaxPreviewLength)
}
