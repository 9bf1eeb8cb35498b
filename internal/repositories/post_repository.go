package repositories

import (
	"context"

	"github.com/picstream/backend/internal/models"
)

// PostRepository defines data access for posts and the home feed.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, postID, viewerID string) (models.Post, error)
	ListByOwner(ctx context.Context, ownerID, viewerID string) ([]models.Post, error)
	ListFeed(ctx context.Context, viewerID string, limit int) ([]models.Post, error)
	DeleteOwned(ctx context.Context, postID, ownerID string) error
}

// MediaStatusUpdater persists media ingestion outcomes for posts.
type MediaStatusUpdater interface {
	MarkMediaReady(ctx context.Context, postID, location string) error
	MarkMediaFailed(ctx context.Context, postID string) error
}
