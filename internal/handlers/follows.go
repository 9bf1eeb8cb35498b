package handlers

import (
	"errors"
	"net/http"

	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/repositories"
)

// FollowHandler provides follow-graph endpoints. Follow and unfollow
// converge the same way the like toggles do.
type FollowHandler struct {
	Follows FollowStore
	Events  EventPublisher
}

// Follow handles POST /api/v1/users/{id}/follow.
func (h FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue("id")
	if targetID == userID {
		respondError(ctx, w, http.StatusUnprocessableEntity, "cannot follow yourself")
		return
	}

	if err := h.Follows.Follow(ctx, userID, targetID); err != nil {
		if !errors.Is(err, repositories.ErrConflict) {
			respondStoreError(ctx, w, err, "user not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "follows", Action: realtime.ActionInsert, Payload: map[string]string{"followerId": userID, "followingId": targetID}})
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /api/v1/users/{id}/follow.
func (h FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue("id")
	if err := h.Follows.Unfollow(ctx, userID, targetID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			respondStoreError(ctx, w, err, "user not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "follows", Action: realtime.ActionDelete, Payload: map[string]string{"followerId": userID, "followingId": targetID}})
	}

	w.WriteHeader(http.StatusNoContent)
}

// Followers handles GET /api/v1/users/{id}/followers.
func (h FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, err := h.Follows.ListFollowers(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponses(profiles))
}

// Following handles GET /api/v1/users/{id}/following.
func (h FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, err := h.Follows.ListFollowing(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponses(profiles))
}
