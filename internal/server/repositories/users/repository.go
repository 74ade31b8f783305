package users

import (
	"context"

	"github.com/civicdeck/backend/internal/server/models"
)

type Repository interface {
	// Read returns the profile plus per-axis average scores derived from
	// the user's swipe history.
	Read(ctx context.Context, userID string) (*models.UserProfile, error)

	// Create inserts the user. A blank username is replaced with a
	// generated unique one; the stored username is returned.
	Create(ctx context.Context, user *models.User) (string, error)

	// Update applies a partial update (DB column name to value). An empty
	// patch is a no-op.
	Update(ctx context.Context, userID string, fields map[string]any) error
}
