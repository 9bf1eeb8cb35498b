package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/repositories"
)

// InteractionHandler provides the like and save toggle endpoints. Toggles
// converge: re-applying an already-applied toggle succeeds without writing
// a second row, so retries and racing clients settle on the same state.
type InteractionHandler struct {
	Interactions InteractionStore
	Events       EventPublisher
}

// Like handles POST /api/v1/posts/{id}/like.
func (h InteractionHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "likes", realtime.ActionInsert, h.Interactions.Like)
}

// Unlike handles DELETE /api/v1/posts/{id}/like.
func (h InteractionHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "likes", h.Interactions.Unlike)
}

// Save handles POST /api/v1/posts/{id}/save.
func (h InteractionHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "saved_posts", realtime.ActionInsert, h.Interactions.Save)
}

// Unsave handles DELETE /api/v1/posts/{id}/save.
func (h InteractionHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "saved_posts", h.Interactions.Unsave)
}

// ListSaved handles GET /api/v1/posts/saved.
func (h InteractionHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	posts, err := h.Interactions.ListSaved(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list saved posts failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load saved posts")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPostResponses(posts))
}

func (h InteractionHandler) apply(w http.ResponseWriter, r *http.Request, table, action string, op func(ctx context.Context, userID, postID string) error) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	postID := r.PathValue("id")
	if err := op(ctx, userID, postID); err != nil {
		// Already applied: the toggle has converged.
		if !errors.Is(err, repositories.ErrConflict) {
			respondStoreError(ctx, w, err, "post not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: table, Action: action, Payload: map[string]string{"postId": postID, "userId": userID}})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h InteractionHandler) remove(w http.ResponseWriter, r *http.Request, table string, op func(ctx context.Context, userID, postID string) error) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	postID := r.PathValue("id")
	if err := op(ctx, userID, postID); err != nil {
		// Nothing to remove: the toggle has converged.
		if !errors.Is(err, repositories.ErrNotFound) {
			respondStoreError(ctx, w, err, "post not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: table, Action: realtime.ActionDelete, Payload: map[string]string{"postId": postID, "userId": userID}})
	}

	w.WriteHeader(http.StatusNoContent)
}
