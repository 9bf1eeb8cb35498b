package models

import "time"

// User represents an authentication identity. The matching Profile row is
// provisioned by a database trigger when the user is inserted.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the public face of a user: handle, bio, and the denormalized
// counters maintained by database triggers.
type Profile struct {
	ID             string
	Username       string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FollowerCount  int
	FollowingCount int
	PostCount      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfilePatch carries a partial profile update. Nil fields are left
// untouched, so concurrent writers of disjoint fields never clobber each
// other.
type ProfilePatch struct {
	Username    *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// Post is a single image publication. LikeCount and CommentCount mirror the
// cardinality of the likes and comments tables.
type Post struct {
	ID           string
	OwnerID      string
	ImageURL     string
	Caption      string
	LikeCount    int
	CommentCount int
	MediaStatus  string
	CreatedAt    time.Time

	// Viewer-dependent flags, populated by feed queries for the
	// authenticated caller. Zero for anonymous reads.
	Liked bool
	Saved bool
}

const (
	MediaStatusPending = "pending"
	MediaStatusReady   = "ready"
	MediaStatusFailed  = "failed"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// Follow is a directed edge in the social graph. At most one edge exists per
// ordered (follower, following) pair and self-edges are rejected.
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// Story is an ephemeral image publication that disappears from active-story
// queries once ExpiresAt has passed.
type Story struct {
	ID        string
	OwnerID   string
	ImageURL  string
	CreatedAt time.Time
	ExpiresAt time.Time

	Viewed bool
}

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

// StoryView records that a user has seen a story, at most once per pair.
type StoryView struct {
	StoryID  string
	UserID   string
	ViewedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
