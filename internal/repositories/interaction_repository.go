package repositories

import (
	"context"

	"github.com/picstream/backend/internal/models"
)

// InteractionRepository defines data access for per-user toggles on posts:
// likes and saves. Counter maintenance is handled by database triggers.
type InteractionRepository interface {
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	Save(ctx context.Context, userID, postID string) error
	Unsave(ctx context.Context, userID, postID string) error
	ListSaved(ctx context.Context, userID string) ([]models.Post, error)
}

// CommentRepository defines data access for post comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForPost(ctx context.Context, postID string) ([]models.Comment, error)
	// Delete removes a comment when the requester owns either the comment
	// or the post it is attached to.
	Delete(ctx context.Context, commentID, requesterID string) error
}

// FollowRepository defines data access for the follow graph.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	ListFollowers(ctx context.Context, userID string) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID string) ([]models.Profile, error)
}

// StoryRepository defines data access for ephemeral stories.
type StoryRepository interface {
	Create(ctx context.Context, story models.Story) error
	// ListActive returns unexpired stories from the viewer and everyone
	// they follow, with the per-viewer seen flag populated.
	ListActive(ctx context.Context, viewerID string) ([]models.Story, error)
	MarkViewed(ctx context.Context, storyID, viewerID string) error
	// ListViewers lists profiles that viewed a story; only the story owner
	// may call it.
	ListViewers(ctx context.Context, storyID, ownerID string) ([]models.Profile, error)
}
