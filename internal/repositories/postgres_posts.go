package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/models"
)

// PostgresPostRepository provides PostgreSQL-backed persistence for posts.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

// Create stores a new post record. The profile post counter moves via trigger.
func (r *PostgresPostRepository) Create(ctx context.Context, post models.Post) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := post.MediaStatus
	if strings.TrimSpace(status) == "" {
		status = models.MediaStatusPending
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO posts (id, owner_id, image_url, caption, media_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, post.ID, post.OwnerID, post.ImageURL, post.Caption, status, post.CreatedAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

const postColumns = `
        p.id, p.owner_id, p.image_url, p.caption, p.like_count, p.comment_count,
        p.media_status, p.created_at,
        EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked,
        EXISTS (SELECT 1 FROM saved_posts sp WHERE sp.post_id = p.id AND sp.user_id = $1) AS saved`

func scanPost(row pgx.Row) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.OwnerID, &p.ImageURL, &p.Caption, &p.LikeCount,
		&p.CommentCount, &p.MediaStatus, &p.CreatedAt, &p.Liked, &p.Saved)
	return p, err
}

func collectPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID fetches a single post with the viewer's like/save flags populated.
func (r *PostgresPostRepository) FindByID(ctx context.Context, postID, viewerID string) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	post, err := scanPost(conn.QueryRow(ctx, `
        SELECT `+postColumns+`
        FROM posts p
        WHERE p.id = $2
    `, viewerID, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("select post: %w", err)
	}

	return post, nil
}

// ListByOwner returns an owner's posts, newest first.
func (r *PostgresPostRepository) ListByOwner(ctx context.Context, ownerID, viewerID string) ([]models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+postColumns+`
        FROM posts p
        WHERE p.owner_id = $2 AND p.media_status = 'ready'
        ORDER BY p.created_at DESC
    `, viewerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query posts by owner: %w", err)
	}

	return collectPosts(rows)
}

// ListFeed returns a reverse chronological feed of ready posts from the
// viewer and everyone they follow.
func (r *PostgresPostRepository) ListFeed(ctx context.Context, viewerID string, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        WITH following AS (
            SELECT following_id FROM follows WHERE follower_id = $1
        )
        SELECT `+postColumns+`
        FROM posts p
        WHERE (p.owner_id = $1 OR p.owner_id IN (SELECT following_id FROM following))
          AND p.media_status = 'ready'
        ORDER BY p.created_at DESC
        LIMIT $2
    `, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}

	return collectPosts(rows)
}

// DeleteOwned removes a post only when the requester owns it.
func (r *PostgresPostRepository) DeleteOwned(ctx context.Context, postID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM posts WHERE id = $1 AND owner_id = $2
    `, postID, ownerID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkMediaReady records a successful media ingestion for the post.
func (r *PostgresPostRepository) MarkMediaReady(ctx context.Context, postID, location string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET media_status = $2, image_url = $3
        WHERE id = $1
    `, postID, models.MediaStatusReady, location)
	if err != nil {
		return fmt.Errorf("update post media ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkMediaFailed records a failed media ingestion for the post.
func (r *PostgresPostRepository) MarkMediaFailed(ctx context.Context, postID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET media_status = $2, image_url = ''
        WHERE id = $1
    `, postID, models.MediaStatusFailed)
	if err != nil {
		return fmt.Errorf("update post media failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ PostRepository = (*PostgresPostRepository)(nil)
var _ MediaStatusUpdater = (*PostgresPostRepository)(nil)
