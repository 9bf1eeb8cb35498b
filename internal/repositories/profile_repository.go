package repositories

import (
	"context"

	"github.com/picstream/backend/internal/models"
)

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (models.Profile, error)
	FindByUsername(ctx context.Context, username string) (models.Profile, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) error
}
