package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
)

func newSwipesService(repo *fakeSwipesRepo, pub *fakePublisher, cache *fakeCache) *SwipesService {
	clock := &clockx.Fake{Current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewSwipesService(nil, &fakeRepoManager{swipes: repo}, pub, cache, clock, logging.NopLogger{})
}

func TestRecord_PersistsPublishesAndInvalidates(t *testing.T) {
	repo := &fakeSwipesRepo{}
	pub := &fakePublisher{}
	cache := newFakeCache()
	s := newSwipesService(repo, pub, cache)

	require.NoError(t, s.Record(context.Background(), "user-1", "card-9", models.ActionRight))

	require.Len(t, repo.created, 1)
	assert.Equal(t, swipeCall{"user-1", "card-9", models.ActionRight}, repo.created[0])

	require.Len(t, pub.events, 1)
	assert.Equal(t, "user-1", pub.events[0].UserID)
	assert.Equal(t, "right", pub.events[0].Action)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), pub.events[0].OccurredAt)

	assert.Equal(t, []string{"poll:card-9"}, cache.invalidated)
}

func TestRecord_RepoErrorStopsEverything(t *testing.T) {
	repo := &fakeSwipesRepo{err: assert.AnError}
	pub := &fakePublisher{}
	s := newSwipesService(repo, pub, newFakeCache())

	err := s.Record(context.Background(), "user-1", "card-9", models.ActionLeft)
	assert.ErrorContains(t, err, "record swipe")
	assert.Empty(t, pub.events)
}

func TestRecord_PublishFailureIsNotFatal(t *testing.T) {
	repo := &fakeSwipesRepo{}
	pub := &fakePublisher{err: assert.AnError}
	s := newSwipesService(repo, pub, newFakeCache())

	assert.NoError(t, s.Record(context.Background(), "user-1", "card-9", models.ActionWatch))
	assert.Len(t, repo.created, 1)
}

func TestRemove_DeletesAndInvalidates(t *testing.T) {
	repo := &fakeSwipesRepo{}
	cache := newFakeCache()
	s := newSwipesService(repo, &fakePublisher{}, cache)

	require.NoError(t, s.Remove(context.Background(), "user-1", "card-9"))
	require.Len(t, repo.deleted, 1)
	assert.Equal(t, []string{"poll:card-9"}, cache.invalidated)
}
