package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/sparkreply/internal/generation"
	logpkg "github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/request"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the default number of history or saved rows returned
	DefaultPageSize = 10
	// MaxPageSize caps the limit query parameter
	MaxPageSize = 50

	maxMessageLength = 200
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage bounds messages that leave the process
func sanitizeErrorMessage(message string) string {
	return logpkg.SanitizeString(message, maxMessageLength)
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorDetails(w, status, errorType, message, nil)
}

// respondJSONErrorDetails sends an error JSON response carrying a details object
func respondJSONErrorDetails(w http.ResponseWriter, status int, errorType, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if details != nil {
		response["details"] = details
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps pipeline and repository errors onto the envelope
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var validationErr *generation.ValidationError
	var generationErr *generation.GenerationError
	switch {
	case errors.As(err, &validationErr):
		respondJSONErrorDetails(w, http.StatusBadRequest, "invalid_request", validationErr.Error(),
			map[string]any{"fields": validationErr.Fields})
	case errors.Is(err, generation.ErrUnauthorized):
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.As(err, &generationErr):
		respondJSONErrorDetails(w, http.StatusInternalServerError, "generation_failed",
			fmt.Sprintf("Failed to %s", action), generationErr.Details)
	default:
		logger.Error("request_failed",
			zap.String("action", action),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("Failed to %s", action))
	}
}

// requireIdentity returns the caller or writes a 401
func requireIdentity(w http.ResponseWriter, r *http.Request) *models.Identity {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	}
	return identity
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pageLimit parses the limit query parameter with the default and cap applied
func pageLimit(r *http.Request) int {
	limit := DefaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, MaxPageSize)
		}
	}
	return limit
}
