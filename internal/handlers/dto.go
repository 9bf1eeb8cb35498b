package handlers

import (
	"time"

	"github.com/picstream/backend/internal/models"
)

type profileResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	PostCount      int       `json:"postCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		ID:             p.ID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		PostCount:      p.PostCount,
		CreatedAt:      p.CreatedAt,
	}
}

func toProfileResponses(profiles []models.Profile) []profileResponse {
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	return out
}

type postResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	MediaStatus  string    `json:"mediaStatus"`
	IsLiked      bool      `json:"isLiked"`
	IsSaved      bool      `json:"isSaved"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toPostResponse(p models.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		ImageURL:     p.ImageURL,
		Caption:      p.Caption,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		MediaStatus:  p.MediaStatus,
		IsLiked:      p.Liked,
		IsSaved:      p.Saved,
		CreatedAt:    p.CreatedAt,
	}
}

func toPostResponses(posts []models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

type storyResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ImageURL  string    `json:"imageUrl"`
	IsViewed  bool      `json:"isViewed"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toStoryResponse(s models.Story) storyResponse {
	return storyResponse{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		ImageURL:  s.ImageURL,
		IsViewed:  s.Viewed,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
