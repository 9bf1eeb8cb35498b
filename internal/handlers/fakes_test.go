package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users     map[string]models.User
	usernames map[string]string
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User), usernames: make(map[string]string)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User, username string) error {
	if _, exists := s.users[user.Email]; exists {
		return repositories.ErrConflict
	}
	if _, exists := s.usernames[username]; exists {
		return repositories.ErrConflict
	}
	s.users[user.Email] = user
	s.usernames[username] = user.ID
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type inMemoryProfileStore struct {
	profiles  map[string]models.Profile
	err       error
	lastPatch *models.ProfilePatch
}

func newInMemoryProfileStore() *inMemoryProfileStore {
	return &inMemoryProfileStore{profiles: make(map[string]models.Profile)}
}

func (s *inMemoryProfileStore) FindByID(_ context.Context, id string) (models.Profile, error) {
	if s.err != nil {
		return models.Profile{}, s.err
	}
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (s *inMemoryProfileStore) FindByUsername(_ context.Context, username string) (models.Profile, error) {
	if s.err != nil {
		return models.Profile{}, s.err
	}
	for _, profile := range s.profiles {
		if profile.Username == username {
			return profile, nil
		}
	}
	return models.Profile{}, repositories.ErrNotFound
}

func (s *inMemoryProfileStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, profile := range s.profiles {
		if profile.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *inMemoryProfileStore) Update(_ context.Context, id string, patch models.ProfilePatch) error {
	if s.err != nil {
		return s.err
	}
	s.lastPatch = &patch
	profile, ok := s.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if patch.Username != nil {
		profile.Username = *patch.Username
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		profile.AvatarURL = *patch.AvatarURL
	}
	s.profiles[id] = profile
	return nil
}

type eventRecorder struct {
	mu       sync.Mutex
	events   []realtime.Event
	targeted map[string][]realtime.Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{targeted: make(map[string][]realtime.Event)}
}

func (r *eventRecorder) Publish(event realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) PublishTo(userID string, event realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targeted[userID] = append(r.targeted[userID], event)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type blobStoreStub struct {
	saved map[string][]byte
	err   error
}

func (s *blobStoreStub) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[name] = data
	return "https://cdn.example.com/" + name, nil
}

type ingestorStub struct {
	enqueued []string
	err      error
}

func (s *ingestorStub) Enqueue(_ context.Context, postID, _ string, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, postID)
	return nil
}

// authedRequest builds a request carrying an authenticated user, matching
// what the authn middleware would have set.
func authedRequest(t *testing.T, method, target, userID string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// multipartBody builds a multipart body with an image part and optional
// extra string fields.
func multipartBody(t *testing.T, contentType string, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write image: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}
