package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/events"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/repomanager"
)

// swipePublisher is the slice of the event publisher the service uses.
type swipePublisher interface {
	Publish(ctx context.Context, event events.SwipeEvent) error
}

// SwipesService records and removes swipes. Each recorded swipe is also
// emitted as an analytics event and invalidates the card's cached poll.
type SwipesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   swipePublisher
	cache       jsonCache
	clock       clockx.Clock
	log         logging.Logger
}

func NewSwipesService(db *sql.DB, m repomanager.RepositoryManager, publisher swipePublisher, cache jsonCache, clock clockx.Clock, log logging.Logger) *SwipesService {
	return &SwipesService{db: db, repomanager: m, publisher: publisher, cache: cache, clock: clock, log: log}
}

// Record stores a swipe. The analytics event and cache invalidation are best
// effort: their failures are logged and do not fail the swipe.
func (s *SwipesService) Record(ctx context.Context, userID, cardID string, action models.Action) error {
	if err := s.repomanager.Swipes(s.db).Create(ctx, userID, cardID, action); err != nil {
		return fmt.Errorf("record swipe: %w", err)
	}

	event := events.SwipeEvent{
		UserID:     userID,
		CardID:     cardID,
		Action:     string(action),
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error(ctx, "swipe event publish failed", "user_id", userID, "card_id", cardID, "error", err)
	}

	if err := s.cache.Invalidate(ctx, pollCacheKey(cardID)); err != nil {
		s.log.Warn(ctx, "poll cache invalidation failed", "card_id", cardID, "error", err)
	}
	return nil
}

// Remove deletes the user's swipes on the card.
func (s *SwipesService) Remove(ctx context.Context, userID, cardID string) error {
	if err := s.repomanager.Swipes(s.db).Delete(ctx, userID, cardID); err != nil {
		return fmt.Errorf("remove swipe: %w", err)
	}
	if err := s.cache.Invalidate(ctx, pollCacheKey(cardID)); err != nil {
		s.log.Warn(ctx, "poll cache invalidation failed", "card_id", cardID, "error", err)
	}
	return nil
}

// Count returns the user's total swipe count.
func (s *SwipesService) Count(ctx context.Context, userID string) (int64, error) {
	return s.repomanager.Swipes(s.db).CountByUser(ctx, userID)
}

// List returns the user's swipes with card details.
func (s *SwipesService) List(ctx context.Context, userID string) ([]models.SwipeDetail, error) {
	return s.repomanager.Swipes(s.db).ListByUser(ctx, userID)
}

// Topics returns the distinct topics of cards the user swiped.
func (s *SwipesService) Topics(ctx context.Context, userID string, action *models.Action) ([]string, error) {
	return s.repomanager.Swipes(s.db).ListTopics(ctx, userID, action)
}
