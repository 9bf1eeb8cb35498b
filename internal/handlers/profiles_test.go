package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/picstream/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestProfileHandlerGet(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{ID: "user-1", Username: "alice"}
	handler := ProfileHandler{Profiles: store}

	req := authedRequest(t, http.MethodGet, "/api/v1/profiles/user-1", "user-2", nil)
	req.SetPathValue("id", "user-1")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestProfileHandlerGetByUsername(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{ID: "user-1", Username: "alice"}
	handler := ProfileHandler{Profiles: store}

	req := authedRequest(t, http.MethodGet, "/api/v1/profiles/username/alice", "user-2", nil)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()
	handler.GetByUsername(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = authedRequest(t, http.MethodGet, "/api/v1/profiles/username/ghost", "user-2", nil)
	req.SetPathValue("username", "ghost")
	rec = httptest.NewRecorder()
	handler.GetByUsername(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestProfileHandlerUpdateMe(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{ID: "user-1", Username: "alice", Bio: "old"}
	handler := ProfileHandler{Profiles: store, Events: newEventRecorder()}

	body, err := json.Marshal(updateProfileRequest{Bio: strPtr("new bio"), DisplayName: strPtr("Alice")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, http.MethodPatch, "/api/v1/profiles/me", "user-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	updated := store.profiles["user-1"]
	if updated.Bio != "new bio" || updated.DisplayName != "Alice" {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
	if updated.Username != "alice" {
		t.Fatal("absent fields must not change")
	}
}

func TestProfileHandlerUpdateMeWritesOnlyProvidedFields(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{
		ID:        "user-1",
		Username:  "alice",
		AvatarURL: "https://cdn.example.com/avatars/user-1.jpg",
	}
	handler := ProfileHandler{Profiles: store, Events: newEventRecorder()}

	body, err := json.Marshal(updateProfileRequest{Bio: strPtr("hello")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, http.MethodPatch, "/api/v1/profiles/me", "user-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	// The write must carry only the patched field. Writing back fields the
	// handler read earlier would let a concurrent avatar upload be clobbered
	// by a stale value.
	patch := store.lastPatch
	if patch == nil {
		t.Fatal("expected an update to reach the store")
	}
	if patch.Bio == nil || *patch.Bio != "hello" {
		t.Fatalf("expected bio in patch, got %+v", patch)
	}
	if patch.Username != nil || patch.DisplayName != nil || patch.AvatarURL != nil {
		t.Fatalf("expected untouched fields to stay out of the patch, got %+v", patch)
	}

	if got := store.profiles["user-1"].AvatarURL; got != "https://cdn.example.com/avatars/user-1.jpg" {
		t.Fatalf("expected avatar to survive, got %q", got)
	}
}

func TestProfileHandlerUpdateMeValidation(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{ID: "user-1", Username: "alice"}
	handler := ProfileHandler{Profiles: store}

	cases := []updateProfileRequest{
		{Username: strPtr("ab")},
		{Username: strPtr("bad name")},
		{Bio: strPtr(strings.Repeat("x", 151))},
	}

	for _, payload := range cases {
		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req := authedRequest(t, http.MethodPatch, "/api/v1/profiles/me", "user-1", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.UpdateMe(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %+v should 400, got %d", payload, rec.Code)
		}
	}
}

func TestProfileHandlerUpdateAvatar(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.Profile{ID: "user-1", Username: "alice"}
	blobs := &blobStoreStub{}
	handler := ProfileHandler{Profiles: store, Blobs: blobs, MaxUploadSize: 1 << 20}

	body, contentType := multipartBody(t, "image/jpeg", []byte("avatar-bytes"), nil)
	req := authedRequest(t, http.MethodPut, "/api/v1/profiles/me/avatar", "user-1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if store.profiles["user-1"].AvatarURL == "" {
		t.Fatal("expected avatar URL to be recorded")
	}
	if _, ok := blobs.saved["avatars/user-1.jpg"]; !ok {
		t.Fatalf("expected avatar blob under avatars/ prefix, got %v", blobs.saved)
	}
}
