package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/picstream/backend/internal/logging"
	"github.com/picstream/backend/internal/media"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/validate"
)

// ProfileHandler provides profile lookup and self-service update endpoints.
type ProfileHandler struct {
	Profiles      ProfileStore
	Blobs         BlobStore
	Events        EventPublisher
	MaxUploadSize int64
}

// Get handles GET /api/v1/profiles/{id}.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Profiles.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

// GetByUsername handles GET /api/v1/profiles/username/{username}.
func (h ProfileHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Profiles.FindByUsername(ctx, r.PathValue("username"))
	if err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

// UpdateMe handles PATCH /api/v1/profiles/me. Only the fields present in
// the payload are changed.
func (h ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch models.ProfilePatch
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validate.Username(username); err != nil {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Username = &username
	}
	if req.DisplayName != nil {
		displayName := strings.TrimSpace(*req.DisplayName)
		patch.DisplayName = &displayName
	}
	if req.Bio != nil {
		if err := validate.Bio(*req.Bio); err != nil {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Bio = req.Bio
	}

	if err := h.Profiles.Update(ctx, userID, patch); err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	updated, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	if h.Events != nil {
		h.Events.Publish(realtime.Event{Table: "profiles", Action: realtime.ActionUpdate, Payload: toProfileResponse(updated)})
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponse(updated))
}

// UpdateAvatar handles PUT /api/v1/profiles/me/avatar with a multipart
// image. Avatars are small, so the upload is synchronous.
func (h ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
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

	location, err := h.Blobs.Save(ctx, fmt.Sprintf("avatars/%s%s", userID, ext), contentType, file)
	if err != nil {
		logger.Error("avatar upload failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	if err := h.Profiles.Update(ctx, userID, models.ProfilePatch{AvatarURL: &location}); err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	profile, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "profile not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
}
