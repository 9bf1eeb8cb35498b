package repositories

import (
	"context"
	"fmt"

	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment. The post comment counter moves via trigger.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, post_id, user_id, content, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForPost returns a post's comments in posting order.
func (r *PostgresCommentRepository) ListForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, post_id, user_id, content, created_at
        FROM comments
        WHERE post_id = $1
        ORDER BY created_at ASC
    `, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Delete removes a comment when the requester owns the comment or the post.
func (r *PostgresCommentRepository) Delete(ctx context.Context, commentID, requesterID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments c
        USING posts p
        WHERE c.id = $1
          AND p.id = c.post_id
          AND (c.user_id = $2 OR p.owner_id = $2)
    `, commentID, requesterID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresFollowRepository provides PostgreSQL-backed persistence for the
// follow graph. Follower/following counters move via triggers.
type PostgresFollowRepository struct {
	pool db.Pool
}

// NewPostgresFollowRepository constructs a follow repository backed by PostgreSQL.
func NewPostgresFollowRepository(pool db.Pool) *PostgresFollowRepository {
	return &PostgresFollowRepository{pool: pool}
}

// Follow inserts a directed edge. A self-follow violates the table check
// constraint and surfaces as ErrInvalid; a duplicate edge as ErrConflict.
func (r *PostgresFollowRepository) Follow(ctx context.Context, followerID, followingID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO follows (follower_id, following_id, created_at)
        VALUES ($1, $2, NOW())
    `, followerID, followingID)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert follow: %w", err)
	}

	return nil
}

// Unfollow removes a directed edge.
func (r *PostgresFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM follows WHERE follower_id = $1 AND following_id = $2
    `, followerID, followingID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListFollowers returns the profiles following the given user.
func (r *PostgresFollowRepository) ListFollowers(ctx context.Context, userID string) ([]models.Profile, error) {
	return r.listEdgeProfiles(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        JOIN follows f ON f.follower_id = profiles.id
        WHERE f.following_id = $1
        ORDER BY f.created_at DESC
    `, userID, "query followers")
}

// ListFollowing returns the profiles the given user follows.
func (r *PostgresFollowRepository) ListFollowing(ctx context.Context, userID string) ([]models.Profile, error) {
	return r.listEdgeProfiles(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        JOIN follows f ON f.following_id = profiles.id
        WHERE f.follower_id = $1
        ORDER BY f.created_at DESC
    `, userID, "query following")
}

func (r *PostgresFollowRepository) listEdgeProfiles(ctx context.Context, query, userID, op string) ([]models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ FollowRepository = (*PostgresFollowRepository)(nil)
