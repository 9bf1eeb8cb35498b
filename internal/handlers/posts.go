package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/validate"
)

// DefaultFeedLimit is the page size used when the caller does not ask for one.
const DefaultFeedLimit = 30

// PostHandler provides endpoints for publishing and fetching posts.
type PostHandler struct {
	Posts         PostStore
	Ingestor      MediaIngestor
	Events        EventPublisher
	MaxUploadSize int64
	NowFunc       func() time.Time
}

// Create handles POST /api/v1/posts with a multipart image + caption. The
// post row is written immediately with pending media; the image bytes are
// persisted by the background ingestor.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	file, contentType, err := imageFromMultipart(r, h.MaxUploadSize)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	caption := strings.TrimSpace(r.FormValue("caption"))
	if err := validate.Caption(caption); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("read upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "unable to read image")
		return
	}

	post := models.Post{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Caption:     caption,
		MediaStatus: models.MediaStatusPending,
		CreatedAt:   h.now(),
	}

	if err := h.Posts.Create(ctx, post); err != nil {
		logger.Error("create post failed", "userId", userID, "error", err)
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	if err := h.Ingestor.Enqueue(ctx, post.ID, contentType, data); err != nil {
		logger.Error("enqueue media ingestion failed", "postId", post.ID, "error", err)
		respondError(ctx, w, http.StatusUnsupportedMediaType, "unsupported or unschedulable image")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "posts", Action: realtime.ActionInsert, Payload: toPostResponse(post)})
	}

	respondJSON(ctx, w, http.StatusAccepted, toPostResponse(post))
}

// Get handles GET /api/v1/posts/{id}.
func (h PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.UserIDFromContext(ctx)

	post, err := h.Posts.FindByID(ctx, r.PathValue("id"), viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "post not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPostResponse(post))
}

// Delete handles DELETE /api/v1/posts/{id}. Only the owner may delete.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	postID := r.PathValue("id")
	if err := h.Posts.DeleteOwned(ctx, postID, userID); err != nil {
		respondStoreError(ctx, w, err, "post not found")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "posts", Action: realtime.ActionDelete, Payload: map[string]string{"id": postID}})
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByOwner handles GET /api/v1/profiles/{id}/posts.
func (h PostHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.UserIDFromContext(ctx)

	posts, err := h.Posts.ListByOwner(ctx, r.PathValue("id"), viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPostResponses(posts))
}

// Feed handles GET /api/v1/feed: own posts plus followed users' posts,
// newest first.
func (h PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := DefaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	posts, err := h.Posts.ListFeed(ctx, userID, limit)
	if err != nil {
		logging.FromContext(ctx).Error("feed query failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load feed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPostResponses(posts))
}

func (h PostHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
