package handlers

import (
	"net/http"

	"github.com/picstream/backend/internal/middleware"
)

// ChangeStreamer upgrades a request into a realtime event stream.
type ChangeStreamer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

// RealtimeHandler exposes the change-stream WebSocket endpoint.
type RealtimeHandler struct {
	Hub ChangeStreamer
}

// Stream handles GET /api/v1/realtime.
func (h RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.Hub == nil {
		respondError(ctx, w, http.StatusInternalServerError, "realtime unavailable")
		return
	}

	h.Hub.ServeWS(w, r, userID)
}
