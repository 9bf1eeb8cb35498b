package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/models"
)

// PostgresInteractionRepository provides PostgreSQL-backed persistence for
// likes and saved posts. Post/profile counters move via triggers on these
// tables, so every insert or delete here is exactly one counter adjustment.
type PostgresInteractionRepository struct {
	pool db.Pool
}

// NewPostgresInteractionRepository constructs an interaction repository backed by PostgreSQL.
func NewPostgresInteractionRepository(pool db.Pool) *PostgresInteractionRepository {
	return &PostgresInteractionRepository{pool: pool}
}

// Like records a like. Returns ErrConflict when the pair already exists so
// callers can treat repeats as already-applied.
func (r *PostgresInteractionRepository) Like(ctx context.Context, userID, postID string) error {
	return r.insertPair(ctx, `
        INSERT INTO likes (user_id, post_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, post_id) DO NOTHING
    `, userID, postID, "insert like")
}

// Unlike removes a like. Returns ErrNotFound when no like existed.
func (r *PostgresInteractionRepository) Unlike(ctx context.Context, userID, postID string) error {
	return r.deletePair(ctx, `
        DELETE FROM likes WHERE user_id = $1 AND post_id = $2
    `, userID, postID, "delete like")
}

// Save records a saved post for its owner only.
func (r *PostgresInteractionRepository) Save(ctx context.Context, userID, postID string) error {
	return r.insertPair(ctx, `
        INSERT INTO saved_posts (user_id, post_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, post_id) DO NOTHING
    `, userID, postID, "insert saved post")
}

// Unsave removes a saved post.
func (r *PostgresInteractionRepository) Unsave(ctx context.Context, userID, postID string) error {
	return r.deletePair(ctx, `
        DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2
    `, userID, postID, "delete saved post")
}

// ListSaved returns the user's saved posts, newest save first. Saved posts
// are visible only to their owner, which callers enforce by passing the
// authenticated user id.
func (r *PostgresInteractionRepository) ListSaved(ctx context.Context, userID string) ([]models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+postColumns+`
        FROM posts p
        JOIN saved_posts s ON s.post_id = p.id
        WHERE s.user_id = $1 AND p.media_status = 'ready'
        ORDER BY s.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query saved posts: %w", err)
	}

	return collectPosts(rows)
}

func (r *PostgresInteractionRepository) insertPair(ctx context.Context, query, userID, postID, op string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, userID, postID, time.Now().UTC())
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}

func (r *PostgresInteractionRepository) deletePair(ctx context.Context, query, userID, postID, op string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, userID, postID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ InteractionRepository = (*PostgresInteractionRepository)(nil)
