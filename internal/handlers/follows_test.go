package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/repositories"
)

type followStoreStub struct {
	edges map[string]map[string]bool
	users map[string]bool
}

func newFollowStoreStub(userIDs ...string) *followStoreStub {
	users := make(map[string]bool)
	for _, id := range userIDs {
		users[id] = true
	}
	return &followStoreStub{edges: make(map[string]map[string]bool), users: users}
}

func (s *followStoreStub) Follow(_ context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return repositories.ErrInvalid
	}
	if !s.users[followingID] {
		return repositories.ErrNotFound
	}
	if s.edges[followerID] == nil {
		s.edges[followerID] = make(map[string]bool)
	}
	if s.edges[followerID][followingID] {
		return repositories.ErrConflict
	}
	s.edges[followerID][followingID] = true
	return nil
}

func (s *followStoreStub) Unfollow(_ context.Context, followerID, followingID string) error {
	if !s.edges[followerID][followingID] {
		return repositories.ErrNotFound
	}
	delete(s.edges[followerID], followingID)
	return nil
}

func (s *followStoreStub) ListFollowers(_ context.Context, userID string) ([]models.Profile, error) {
	var out []models.Profile
	for follower, targets := range s.edges {
		if targets[userID] {
			out = append(out, models.Profile{ID: follower})
		}
	}
	return out, nil
}

func (s *followStoreStub) ListFollowing(_ context.Context, userID string) ([]models.Profile, error) {
	var out []models.Profile
	for target := range s.edges[userID] {
		out = append(out, models.Profile{ID: target})
	}
	return out, nil
}

func followReq(t *testing.T, method, userID, targetID string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	req := authedRequest(t, method, "/api/v1/users/"+targetID+"/follow", userID, nil)
	req.SetPathValue("id", targetID)
	return httptest.NewRecorder(), req
}

func TestFollowHandlerFollowConverges(t *testing.T) {
	store := newFollowStoreStub("user-2")
	events := newEventRecorder()
	handler := FollowHandler{Follows: store, Events: events}

	rec, req := followReq(t, http.MethodPost, "user-1", "user-2")
	handler.Follow(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if events.count() != 1 {
		t.Fatalf("expected one event, got %d", events.count())
	}

	rec, req = followReq(t, http.MethodPost, "user-1", "user-2")
	handler.Follow(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("duplicate follow should converge to 204, got %d", rec.Code)
	}
	if events.count() != 1 {
		t.Fatalf("duplicate follow must not publish, got %d", events.count())
	}

	rec, req = followReq(t, http.MethodDelete, "user-1", "user-2")
	handler.Unfollow(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}

	rec, req = followReq(t, http.MethodDelete, "user-1", "user-2")
	handler.Unfollow(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unfollow of absent edge should converge to 204, got %d", rec.Code)
	}
}

func TestFollowHandlerRejectsSelfFollow(t *testing.T) {
	handler := FollowHandler{Follows: newFollowStoreStub("user-1"), Events: newEventRecorder()}

	rec, req := followReq(t, http.MethodPost, "user-1", "user-1")
	handler.Follow(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("self-follow should 422, got %d", rec.Code)
	}
}

func TestFollowHandlerFollowMissingUser(t *testing.T) {
	handler := FollowHandler{Follows: newFollowStoreStub(), Events: newEventRecorder()}

	rec, req := followReq(t, http.MethodPost, "user-1", "ghost")
	handler.Follow(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("following a missing user should 404, got %d", rec.Code)
	}
}

func TestFollowHandlerLists(t *testing.T) {
	store := newFollowStoreStub("user-1", "user-2", "user-3")
	handler := FollowHandler{Follows: store, Events: newEventRecorder()}

	rec, req := followReq(t, http.MethodPost, "user-2", "user-1")
	handler.Follow(rec, req)
	rec, req = followReq(t, http.MethodPost, "user-3", "user-1")
	handler.Follow(rec, req)

	req = authedRequest(t, http.MethodGet, "/api/v1/users/user-1/followers", "user-1", nil)
	req.SetPathValue("id", "user-1")
	rec = httptest.NewRecorder()
	handler.Followers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = authedRequest(t, http.MethodGet, "/api/v1/users/user-2/following", "user-2", nil)
	req.SetPathValue("id", "user-2")
	rec = httptest.NewRecorder()
	handler.Following(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
