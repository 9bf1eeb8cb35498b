package client

import "time"

// Profile mirrors the backend profile record.
type Profile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatarUrl"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	PostCount      int       `json:"postCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Post mirrors the backend post record, including the viewer-dependent
// isLiked/isSaved flags.
type Post struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	ImageURL     string    `json:"imageUrl"`
	Caption      string    `json:"caption"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	MediaStatus  string    `json:"mediaStatus"`
	IsLiked      bool      `json:"isLiked"`
	IsSaved      bool      `json:"isSaved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Comment mirrors the backend comment record.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Story mirrors the backend story record.
type Story struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ImageURL  string    `json:"imageUrl"`
	IsViewed  bool      `json:"isViewed"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionTokens is the bearer credential pair issued by the backend.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Session couples the identity with its tokens.
type Session struct {
	UserID string        `json:"userId"`
	Tokens SessionTokens `json:"tokens"`
}
