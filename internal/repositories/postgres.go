package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/models"
)

// mapPgError translates PostgreSQL error codes into repository sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		case "23514":
			return ErrInvalid
		}
	}
	return nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. The username lands on the users row and
// the profile trigger copies it into the auto-provisioned profile.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User, username string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Email, username, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// Delete removes a user. Foreign keys cascade the deletion to the profile
// and all owned posts, likes, comments, follows, stories, and saved posts.
func (r *PostgresUserRepository) Delete(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresProfileRepository provides PostgreSQL-backed persistence for profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// profileColumns is qualified so it stays unambiguous in joins against the
// follows table.
const profileColumns = `
        profiles.id, profiles.username, profiles.display_name, profiles.bio, profiles.avatar_url,
        profiles.follower_count, profiles.following_count, profiles.post_count,
        profiles.created_at, profiles.updated_at`

func scanProfile(row pgx.Row) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.FollowerCount, &p.FollowingCount, &p.PostCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// FindByID fetches a profile by user id.
func (r *PostgresProfileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	profile, err := scanProfile(conn.QueryRow(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile by id: %w", err)
	}

	return profile, nil
}

// FindByUsername fetches a profile by its unique handle.
func (r *PostgresProfileRepository) FindByUsername(ctx context.Context, username string) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	profile, err := scanProfile(conn.QueryRow(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        WHERE username = $1
    `, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile by username: %w", err)
	}

	return profile, nil
}

// UsernameTaken reports whether any profile already claims the username.
func (r *PostgresProfileRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var taken bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)
    `, username).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return taken, nil
}

// Update applies a partial update to the owner-editable fields. Only the
// non-nil patch fields are written, so two writers touching different fields
// cannot overwrite each other with stale reads.
func (r *PostgresProfileRepository) Update(ctx context.Context, id string, patch models.ProfilePatch) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE profiles
        SET username     = COALESCE($2, username),
            display_name = COALESCE($3, display_name),
            bio          = COALESCE($4, bio),
            avatar_url   = COALESCE($5, avatar_url),
            updated_at   = NOW()
        WHERE id = $1
    `, id, patch.Username, patch.DisplayName, patch.Bio, patch.AvatarURL)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ ProfileRepository = (*PostgresProfileRepository)(nil)
