package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
	"subject-tutor/internal/indexer"
	"subject-tutor/internal/service"
	"subject-tutor/internal/storage"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// inputErrors are reported to the client verbatim with 400.
var inputErrors = []error{
	corpus.ErrUnknownSubject,
	corpus.ErrUnknownSourceType,
	corpus.ErrInvalidProvenance,
	indexer.ErrEmptyName,
	extract.ErrInvalidURL,
	extract.ErrUnsupportedContent,
	extract.ErrContentTooLarge,
	extract.ErrNoPages,
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "service error", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	for _, target := range inputErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	if errors.Is(err, service.ErrExternalService) {
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, ctx context.Context, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
