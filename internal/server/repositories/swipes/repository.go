package swipes

import (
	"context"

	"github.com/civicdeck/backend/internal/server/models"
)

type Repository interface {
	// Create records a swipe. Left/right swipes are deduplicated: a
	// repeated left/right on the same card updates the existing row's
	// action and timestamp. Watch swipes always insert.
	Create(ctx context.Context, userID, cardID string, action models.Action) error

	// Delete removes every swipe the user made on the card.
	Delete(ctx context.Context, userID, cardID string) error

	CountByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.SwipeDetail, error)

	// ListTopics returns the distinct topics of cards the user swiped,
	// optionally restricted to one action.
	ListTopics(ctx context.Context, userID string, action *models.Action) ([]string, error)
}
