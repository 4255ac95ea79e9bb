package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
	"docqa/internal/retrieval"
	"docqa/internal/session"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(ctx, w, statusCode, ErrorResponse{Error: message})
}

// handleEngineError maps engine errors to HTTP status codes.
func handleEngineError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var ve *rag.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.WarnContext(ctx, "invalid request", "field", ve.Field, "error", ve.Message)
		writeError(ctx, w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, session.ErrOwnershipConflict):
		writeError(ctx, w, http.StatusForbidden, "Session belongs to another user")
	case errors.Is(err, session.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, "Session not found")
	case errors.Is(err, retrieval.ErrRetrievalFailed):
		logger.ErrorContext(ctx, "knowledge base unavailable", "error", err)
		writeError(ctx, w, http.StatusServiceUnavailable, "Knowledge base unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "request cancelled", "error", err)
		writeError(ctx, w, http.StatusServiceUnavailable, "Request timed out")
	default:
		logger.ErrorContext(ctx, "engine error", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, defaultMsg)
	}
}
