package handlers

import (
	"context"
	"io"

	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/realtime"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User, username string) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// ProfileStore captures operations required by the profile handlers.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (models.Profile, error)
	FindByUsername(ctx context.Context, username string) (models.Profile, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) error
}

// PostStore captures persistence for posts and feeds.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, postID, viewerID string) (models.Post, error)
	ListByOwner(ctx context.Context, ownerID, viewerID string) ([]models.Post, error)
	ListFeed(ctx context.Context, viewerID string, limit int) ([]models.Post, error)
	DeleteOwned(ctx context.Context, postID, ownerID string) error
}

// InteractionStore captures the per-user like and save toggles.
type InteractionStore interface {
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	Save(ctx context.Context, userID, postID string) error
	Unsave(ctx context.Context, userID, postID string) error
	ListSaved(ctx context.Context, userID string) ([]models.Post, error)
}

// CommentStore captures persistence for post comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForPost(ctx context.Context, postID string) ([]models.Comment, error)
	Delete(ctx context.Context, commentID, requesterID string) error
}

// FollowStore captures persistence for the follow graph.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	ListFollowers(ctx context.Context, userID string) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID string) ([]models.Profile, error)
}

// StoryStore captures persistence for ephemeral stories.
type StoryStore interface {
	Create(ctx context.Context, story models.Story) error
	ListActive(ctx context.Context, viewerID string) ([]models.Story, error)
	MarkViewed(ctx context.Context, storyID, viewerID string) error
	ListViewers(ctx context.Context, storyID, ownerID string) ([]models.Profile, error)
}

// MediaIngestor schedules background persistence of uploaded images.
type MediaIngestor interface {
	Enqueue(ctx context.Context, postID, contentType string, data []byte) error
}

// BlobStore persists small images synchronously (avatars, stories).
type BlobStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// EventPublisher pushes change events to connected realtime subscribers.
type EventPublisher interface {
	Publish(event realtime.Event)
	PublishTo(userID string, event realtime.Event)
}
