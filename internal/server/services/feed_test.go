package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
)

func TestPoll_CacheMissQueriesAndFills(t *testing.T) {
	repo := &fakeCardsRepo{poll: &models.CardPoll{CardID: "card-1", TotalSwipes: 10, LeftSwipes: 4, RightSwipes: 6}}
	cache := newFakeCache()
	s := NewFeedService(nil, &fakeRepoManager{cards: repo}, cache, logging.NopLogger{})

	poll, err := s.Poll(context.Background(), "card-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), poll.TotalSwipes)
	assert.Equal(t, 1, repo.pollCalls)
	assert.Contains(t, cache.values, "poll:card-1")
}

func TestPoll_CacheHitSkipsDatabase(t *testing.T) {
	repo := &fakeCardsRepo{poll: &models.CardPoll{CardID: "card-1", TotalSwipes: 10}}
	cache := newFakeCache()
	s := NewFeedService(nil, &fakeRepoManager{cards: repo}, cache, logging.NopLogger{})
	ctx := context.Background()

	_, err := s.Poll(ctx, "card-1")
	require.NoError(t, err)

	poll, err := s.Poll(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), poll.TotalSwipes)
	assert.Equal(t, 1, repo.pollCalls)
}

func TestPoll_CacheErrorFallsThrough(t *testing.T) {
	repo := &fakeCardsRepo{poll: &models.CardPoll{CardID: "card-1", TotalSwipes: 3}}
	cache := newFakeCache()
	cache.getErr = assert.AnError
	s := NewFeedService(nil, &fakeRepoManager{cards: repo}, cache, logging.NopLogger{})

	poll, err := s.Poll(context.Background(), "card-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), poll.TotalSwipes)
	assert.Equal(t, 1, repo.pollCalls)
}

func TestPoll_RepoError(t *testing.T) {
	repo := &fakeCardsRepo{err: assert.AnError}
	s := NewFeedService(nil, &fakeRepoManager{cards: repo}, newFakeCache(), logging.NopLogger{})

	_, err := s.Poll(context.Background(), "card-1")
	assert.ErrorIs(t, err, assert.AnError)
}
