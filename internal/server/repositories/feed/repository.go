package feed

import (
	"context"

	"github.com/civicdeck/backend/internal/server/models"
)

type Repository interface {
	// Unseen returns up to 100 cards the user has not swiped, priority
	// first with a random tiebreak. Reviewers see unreviewed cards;
	// everyone else sees reviewed cards for their state or stateless ones.
	Unseen(ctx context.Context, userID string) ([]models.FeedCard, error)

	// Matches re-ranks cards from the user's swipe history by proximity
	// to their per-axis affinity scores. Up to 20 cards, best rank first.
	Matches(ctx context.Context, userID string) ([]models.FeedCard, error)
}
