package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/docmodel"
	"github.com/civicdeck/backend/internal/docstore"
	"github.com/civicdeck/backend/internal/logging"
)

func newTestCatalog(t *testing.T) (*Catalog, *docstore.MemoryStore, *clockx.Fake) {
	t.Helper()
	store := docstore.NewMemoryStore()
	clock := &clockx.Fake{Current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(store, clock, logging.NopLogger{}), store, clock
}

func TestFedOfficials_CreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCatalog(t)

	id, doc, err := c.FedOfficials.Create(ctx, docmodel.Record{
		"first_name": "Alexandria",
		"last_name":  "Ocasio-Cortez",
	}, &docmodel.WriteOptions{ReturnDoc: true})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, "", doc["propublica_id"])
	assert.Equal(t, int64(0), doc["proPublicaUpdatedAt"])
	assert.Equal(t, "", doc["proPublicaData"])
}

func TestFedOfficials_UpdateProPublicaData(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCatalog(t)

	id, _, err := c.FedOfficials.Create(ctx, docmodel.Record{"first_name": "Jon"}, nil)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	err = c.FedOfficials.UpdateProPublicaData(ctx, id, map[string]any{"votes": 12})
	require.NoError(t, err)

	doc, err := c.FedOfficials.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"votes":12}`, doc["proPublicaData"].(string))
	assert.Equal(t, clock.Current.UnixMilli(), doc["proPublicaUpdatedAt"])
}

func TestFedBills_RequiredKeys(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCatalog(t)

	_, _, err := c.FedBills.Create(ctx, docmodel.Record{
		"billNumber": "3076",
		"billType":   "hr",
	}, nil)
	require.Error(t, err)

	_, _, err = c.FedBills.Create(ctx, docmodel.Record{
		"billNumber": "3076",
		"billType":   "hr",
		"congress":   "117",
	}, nil)
	require.NoError(t, err)
}

func TestNews_DateIsStoredAsNativeTimestamp(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCatalog(t)

	published := int64(1700000000123)
	id, doc, err := c.News.Create(ctx, docmodel.Record{
		"topic": "climate",
		"date":  published,
		"news":  "digest",
	}, &docmodel.WriteOptions{ReturnDoc: true})
	require.NoError(t, err)
	assert.Equal(t, published, doc["date"])

	raw, err := store.Collection(CollectionNews).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, primitive.DateTime(published), raw.Data["date"])
}

func TestNews_LatestForTopic(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCatalog(t)

	for i, topic := range []string{"climate", "climate", "taxes"} {
		_, _, err := c.News.Create(ctx, docmodel.Record{
			"topic": topic,
			"date":  int64(1000 * (i + 1)),
			"news":  "digest",
		}, nil)
		require.NoError(t, err)
	}

	doc, err := c.News.LatestForTopic(ctx, "climate")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(2000), doc["date"])

	doc, err = c.News.LatestForTopic(ctx, "sports")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestRemoteConfig_Value(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCatalog(t)

	_, _, err := c.RemoteConfig.Create(ctx, docmodel.Record{
		"id":    "feed_limit",
		"value": "20",
	}, nil)
	require.NoError(t, err)

	v, err := c.RemoteConfig.Value(ctx, "feed_limit")
	require.NoError(t, err)
	assert.Equal(t, "20", v)

	v, err = c.RemoteConfig.Value(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestStateBills_OptionalTimestampsDefaultToZero(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCatalog(t)

	_, doc, err := c.StateBills.Create(ctx, docmodel.Record{
		"state":        "NY",
		"billCategory": "housing",
		"billNumber":   "S100",
		"billText":     "text",
		"data":         "{}",
	}, &docmodel.WriteOptions{ReturnDoc: true})
	require.NoError(t, err)

	assert.Equal(t, int64(0), doc["billCategoryUpdatedAt"])
	assert.Equal(t, int64(0), doc["billSummaryUpdatedAt"])
}
