package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/models"
)

// PostgresStoryRepository provides PostgreSQL-backed persistence for stories.
// Expired stories stay in the table but never leave ListActive; a periodic
// cleanup job may purge them.
type PostgresStoryRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresStoryRepository constructs a story repository backed by PostgreSQL.
func NewPostgresStoryRepository(pool db.Pool) *PostgresStoryRepository {
	return &PostgresStoryRepository{pool: pool, now: time.Now}
}

// WithNowFunc overrides the time source. Useful for expiry tests.
func (r *PostgresStoryRepository) WithNowFunc(now func() time.Time) {
	r.now = now
}

// Create stores a new story record.
func (r *PostgresStoryRepository) Create(ctx context.Context, story models.Story) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO stories (id, owner_id, image_url, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
    `, story.ID, story.OwnerID, story.ImageURL, story.CreatedAt, story.ExpiresAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert story: %w", err)
	}

	return nil
}

// ListActive returns unexpired stories from the viewer and everyone they
// follow, newest first, with the per-viewer seen flag populated.
func (r *PostgresStoryRepository) ListActive(ctx context.Context, viewerID string) ([]models.Story, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        WITH following AS (
            SELECT following_id FROM follows WHERE follower_id = $1
        )
        SELECT s.id, s.owner_id, s.image_url, s.created_at, s.expires_at,
               EXISTS (SELECT 1 FROM story_views v WHERE v.story_id = s.id AND v.user_id = $1) AS viewed
        FROM stories s
        WHERE (s.owner_id = $1 OR s.owner_id IN (SELECT following_id FROM following))
          AND s.expires_at > $2
        ORDER BY s.created_at DESC
    `, viewerID, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("query active stories: %w", err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.ImageURL, &s.CreatedAt, &s.ExpiresAt, &s.Viewed); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}

	return stories, nil
}

// MarkViewed records that the viewer has seen the story. Repeat views are
// no-ops; views of expired or missing stories return ErrNotFound.
func (r *PostgresStoryRepository) MarkViewed(ctx context.Context, storyID, viewerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO story_views (story_id, user_id, viewed_at)
        SELECT s.id, $2, $3
        FROM stories s
        WHERE s.id = $1 AND s.expires_at > $3
        ON CONFLICT (story_id, user_id) DO NOTHING
    `, storyID, viewerID, r.now().UTC())
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert story view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already viewed (fine) or the story is gone. Distinguish so
		// callers can 404 on expired stories.
		var exists bool
		if err := conn.QueryRow(ctx, `
            SELECT EXISTS (SELECT 1 FROM stories WHERE id = $1 AND expires_at > $2)
        `, storyID, r.now().UTC()).Scan(&exists); err != nil {
			return fmt.Errorf("check story: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}

	return nil
}

// ListViewers lists profiles that viewed a story. Only the story owner may
// see its viewer list; a mismatched owner yields ErrNotFound.
func (r *PostgresStoryRepository) ListViewers(ctx context.Context, storyID, ownerID string) ([]models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var owned bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM stories WHERE id = $1 AND owner_id = $2)
    `, storyID, ownerID).Scan(&owned); err != nil {
		return nil, fmt.Errorf("check story owner: %w", err)
	}
	if !owned {
		return nil, ErrNotFound
	}

	rows, err := conn.Query(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        JOIN story_views v ON v.user_id = profiles.id
        WHERE v.story_id = $1
        ORDER BY v.viewed_at DESC
    `, storyID)
	if err != nil {
		return nil, fmt.Errorf("query story viewers: %w", err)
	}
	defer rows.Close()

	var viewers []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan viewer: %w", err)
		}
		viewers = append(viewers, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewers: %w", err)
	}

	return viewers, nil
}

var _ StoryRepository = (*PostgresStoryRepository)(nil)
