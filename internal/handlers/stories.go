package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/media"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/repositories"
)

// StoryHandler provides ephemeral story endpoints.
type StoryHandler struct {
	Stories       StoryStore
	Blobs         BlobStore
	Events        EventPublisher
	MaxUploadSize int64
	NowFunc       func() time.Time
}

// Create handles POST /api/v1/stories with a multipart image. The story
// expires a fixed interval after creation.
func (h StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.Blobs == nil {
		logger.Error("blob storage unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media storage unavailable")
		return
	}

	file, contentType, err := imageFromMultipart(r, h.MaxUploadSize)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	ext, err := media.ExtensionFor(contentType)
	if err != nil {
		respondError(ctx, w, http.StatusUnsupportedMediaType, "unsupported image type")
		return
	}

	storyID := uuid.NewString()
	location, err := h.Blobs.Save(ctx, fmt.Sprintf("stories/%s%s", storyID, ext), contentType, file)
	if err != nil {
		logger.Error("story upload failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}

	now := h.now()
	story := models.Story{
		ID:        storyID,
		OwnerID:   userID,
		ImageURL:  location,
		CreatedAt: now,
		ExpiresAt: now.Add(models.StoryTTL),
	}

	if err := h.Stories.Create(ctx, story); err != nil {
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "stories", Action: realtime.ActionInsert, Payload: toStoryResponse(story)})
	}

	respondJSON(ctx, w, http.StatusCreated, toStoryResponse(story))
}

// ListActive handles GET /api/v1/stories: unexpired stories from the caller
// and everyone they follow.
func (h StoryHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	stories, err := h.Stories.ListActive(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list stories failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load stories")
		return
	}

	out := make([]storyResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, toStoryResponse(s))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// MarkViewed handles POST /api/v1/stories/{id}/view. Recording a view twice
// is a no-op.
func (h StoryHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Stories.MarkViewed(ctx, r.PathValue("id"), userID); err != nil {
		if !errors.Is(err, repositories.ErrConflict) {
			respondStoreError(ctx, w, err, "story not found or expired")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListViewers handles GET /api/v1/stories/{id}/viewers. Only the story
// owner may see who viewed it.
func (h StoryHandler) ListViewers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	viewers, err := h.Stories.ListViewers(ctx, r.PathValue("id"), userID)
	if err != nil {
		respondStoreError(ctx, w, err, "story not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponses(viewers))
}

func (h StoryHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
