package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// respondStoreError maps repository sentinel errors to HTTP statuses.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "resource already exists")
	case errors.Is(err, repositories.ErrInvalid):
		respondError(ctx, w, http.StatusUnprocessableEntity, "operation not allowed")
	default:
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
