package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/repomanager"
)

// pollCacheTTL bounds how stale a cached poll aggregate can be.
const pollCacheTTL = 5 * time.Minute

// jsonCache is the slice of the cache the feed service uses.
type jsonCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// FeedService assembles the two card feeds and serves poll aggregates.
type FeedService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       jsonCache
	log         logging.Logger
}

func NewFeedService(db *sql.DB, m repomanager.RepositoryManager, cache jsonCache, log logging.Logger) *FeedService {
	return &FeedService{db: db, repomanager: m, cache: cache, log: log}
}

// Unseen returns cards the user has not swiped yet.
func (s *FeedService) Unseen(ctx context.Context, userID string) ([]models.FeedCard, error) {
	return s.repomanager.Feed(s.db).Unseen(ctx, userID)
}

// Matches returns cards from the user's history ranked by affinity.
func (s *FeedService) Matches(ctx context.Context, userID string) ([]models.FeedCard, error) {
	return s.repomanager.Feed(s.db).Matches(ctx, userID)
}

func pollCacheKey(cardID string) string {
	return fmt.Sprintf("poll:%s", cardID)
}

// Poll returns the swipe tally for one card, served from cache when fresh.
// Cache failures fall through to the database.
func (s *FeedService) Poll(ctx context.Context, cardID string) (*models.CardPoll, error) {
	key := pollCacheKey(cardID)

	var cached models.CardPoll
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warn(ctx, "poll cache read failed", "card_id", cardID, "error", err)
	}
	if hit {
		return &cached, nil
	}

	poll, err := s.repomanager.Cards(s.db, s.log).Poll(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, poll, pollCacheTTL); err != nil {
		s.log.Warn(ctx, "poll cache write failed", "card_id", cardID, "error", err)
	}
	return poll, nil
}
