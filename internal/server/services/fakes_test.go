package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/events"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/cards"
	"github.com/civicdeck/backend/internal/server/repositories/feed"
	"github.com/civicdeck/backend/internal/server/repositories/swipes"
	"github.com/civicdeck/backend/internal/server/repositories/users"
)

type fakeRepoManager struct {
	cards  cards.Repository
	feed   feed.Repository
	swipes swipes.Repository
	users  users.Repository
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeRepoManager) Swipes(db dbx.DBTX) swipes.Repository                { return m.swipes }
func (m *fakeRepoManager) Feed(db dbx.DBTX) feed.Repository                    { return m.feed }
func (m *fakeRepoManager) Cards(db *sql.DB, log logging.Logger) cards.Repository {
	return m.cards
}

type fakeCardsRepo struct {
	batches   [][]cards.Input
	batchType models.CardType
	batchMode cards.BulkMode
	patches   []cards.Patch
	poll      *models.CardPoll
	pollCalls int
	err       error
}

func (f *fakeCardsRepo) CreateBatch(ctx context.Context, inputs []cards.Input, cardType models.CardType, mode cards.BulkMode) error {
	f.batches = append(f.batches, inputs)
	f.batchType = cardType
	f.batchMode = mode
	return f.err
}

func (f *fakeCardsRepo) UpdateByID(ctx context.Context, patches []cards.Patch) error {
	f.patches = append(f.patches, patches...)
	return f.err
}

func (f *fakeCardsRepo) MarkReviewed(ctx context.Context) (int64, error) { return 0, f.err }

func (f *fakeCardsRepo) SetTopicCreated(ctx context.Context, cardID string) error { return f.err }

func (f *fakeCardsRepo) Poll(ctx context.Context, cardID string) (*models.CardPoll, error) {
	f.pollCalls++
	return f.poll, f.err
}

func (f *fakeCardsRepo) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	return nil, f.err
}

type swipeCall struct {
	userID string
	cardID string
	action models.Action
}

type fakeSwipesRepo struct {
	created []swipeCall
	deleted []swipeCall
	err     error
}

func (f *fakeSwipesRepo) Create(ctx context.Context, userID, cardID string, action models.Action) error {
	f.created = append(f.created, swipeCall{userID, cardID, action})
	return f.err
}

func (f *fakeSwipesRepo) Delete(ctx context.Context, userID, cardID string) error {
	f.deleted = append(f.deleted, swipeCall{userID: userID, cardID: cardID})
	return f.err
}

func (f *fakeSwipesRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return 0, f.err
}

func (f *fakeSwipesRepo) ListByUser(ctx context.Context, userID string) ([]models.SwipeDetail, error) {
	return nil, f.err
}

func (f *fakeSwipesRepo) ListTopics(ctx context.Context, userID string, action *models.Action) ([]string, error) {
	return nil, f.err
}

type fakePublisher struct {
	events []events.SwipeEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event events.SwipeEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeCache struct {
	values      map[string][]byte
	invalidated []string
	getErr      error
	setErr      error
	delErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.invalidated = append(f.invalidated, keys...)
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}
