package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/picstream/backend/internal/models"
)

type feedEntry struct {
	posts   []models.Post
	limit   int
	expires time.Time
}

// CachingPostRepository wraps a PostRepository with a short-TTL in-memory
// cache of feed snapshots. Snapshots are disposable: mutations do not patch
// them, they simply invalidate the viewer's entry so the next load refetches.
type CachingPostRepository struct {
	PostRepository
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	feeds map[string]feedEntry
}

// NewCachingPostRepository returns a PostRepository that caches feed queries
// for the provided TTL.
func NewCachingPostRepository(base PostRepository, ttl time.Duration) *CachingPostRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingPostRepository{
		PostRepository: base,
		ttl:            ttl,
		now:            time.Now,
		feeds:          make(map[string]feedEntry),
	}
}

// WithNowFunc overrides the time source. Useful for TTL tests.
func (c *CachingPostRepository) WithNowFunc(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// ListFeed returns a cached snapshot when fresh, otherwise it delegates to
// the underlying repository and stores the result. A snapshot fetched at one
// limit only serves requests for that limit or less; it is sliced down, never
// padded, so page sizes always honor the caller's limit.
func (c *CachingPostRepository) ListFeed(ctx context.Context, viewerID string, limit int) ([]models.Post, error) {
	// Mirror the base repository's clamp so cached and fetched limits compare
	// on the same scale.
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	c.mu.RLock()
	entry, ok := c.feeds[viewerID]
	now := c.now()
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) && entry.limit >= limit {
		if len(entry.posts) > limit {
			return entry.posts[:limit], nil
		}
		return entry.posts, nil
	}

	posts, err := c.PostRepository.ListFeed(ctx, viewerID, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.feeds[viewerID] = feedEntry{posts: posts, limit: limit, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return posts, nil
}

// Invalidate drops the viewer's cached snapshot after a mutation.
func (c *CachingPostRepository) Invalidate(viewerID string) {
	c.mu.Lock()
	delete(c.feeds, viewerID)
	c.mu.Unlock()
}

// Create invalidates the owner's snapshot so their own feed reflects the new
// post on next load.
func (c *CachingPostRepository) Create(ctx context.Context, post models.Post) error {
	if err := c.PostRepository.Create(ctx, post); err != nil {
		return err
	}
	c.Invalidate(post.OwnerID)
	return nil
}

// DeleteOwned invalidates the owner's snapshot after a successful delete.
func (c *CachingPostRepository) DeleteOwned(ctx context.Context, postID, ownerID string) error {
	if err := c.PostRepository.DeleteOwned(ctx, postID, ownerID); err != nil {
		return err
	}
	c.Invalidate(ownerID)
	return nil
}
