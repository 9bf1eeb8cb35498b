package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/validate"
)

// CommentHandler provides comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Events   EventPublisher
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/posts/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if err := validate.Comment(content); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    r.PathValue("id"),
		UserID:    userID,
		Content:   content,
		CreatedAt: h.now(),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "post not found")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "comments", Action: realtime.ActionInsert, Payload: toCommentResponse(comment)})
	}

	respondJSON(ctx, w, http.StatusCreated, toCommentResponse(comment))
}

// List handles GET /api/v1/posts/{id}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comments, err := h.Comments.ListForPost(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "post not found")
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Delete handles DELETE /api/v1/comments/{id}. Allowed for the comment
// author and for the owner of the commented post.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	commentID := r.PathValue("id")
	if err := h.Comments.Delete(ctx, commentID, userID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "comments", Action: realtime.ActionDelete, Payload: map[string]string{"id": commentID}})
	}

	w.WriteHeader(http.StatusNoContent)
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
