package repositories

import (
	"context"

	"github.com/picstream/backend/internal/models"
)

// UserRepository defines data access for authentication identities.
type UserRepository interface {
	Create(ctx context.Context, user models.User, username string) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Delete(ctx context.Context, userID string) error
}
