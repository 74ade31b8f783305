package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCollection_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Collection("things")

	require.NoError(t, col.Set(ctx, "a", map[string]any{"name": "first"}))

	doc, err := col.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "first", doc.Data["name"])

	doc, err = col.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, col.Delete(ctx, "a"))
	doc, err = col.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// delete of a missing doc is not an error
	require.NoError(t, col.Delete(ctx, "a"))
}

func TestMemoryCollection_MergeSetPreservesFields(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Collection("things")

	require.NoError(t, col.Set(ctx, "a", map[string]any{"foo": "x", "bar": "y"}))
	require.NoError(t, col.MergeSet(ctx, "a", map[string]any{"foo": "z"}))

	doc, err := col.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "z", doc.Data["foo"])
	assert.Equal(t, "y", doc.Data["bar"])
}

func TestMemoryCollection_QueryWhereOrderLimit(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Collection("things")

	require.NoError(t, col.Set(ctx, "a", map[string]any{"n": int64(1), "state": "TX"}))
	require.NoError(t, col.Set(ctx, "b", map[string]any{"n": int64(3), "state": "TX"}))
	require.NoError(t, col.Set(ctx, "c", map[string]any{"n": int64(2), "state": "CA"}))

	docs, err := col.Query(ctx, Query{
		Where:   []Where{{Field: "state", Op: "==", Value: "TX"}},
		OrderBy: []Order{{Field: "n", Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)

	docs, err = col.Query(ctx, Query{
		OrderBy: []Order{{Field: "n"}},
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
}

func TestMemoryCollection_QueryStartAfter(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Collection("things")

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, col.Set(ctx, id, map[string]any{"n": int64(i)}))
	}

	docs, err := col.Query(ctx, Query{
		OrderBy:    []Order{{Field: "n"}},
		StartAfter: []any{int64(1)},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "d", docs[1].ID)
}

func TestMemoryBatch_CommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	batch := store.NewBatch()
	batch.Set("alpha", "1", map[string]any{"v": "a"})
	batch.MergeSet("beta", "2", map[string]any{"v": "b"})
	require.NoError(t, batch.Commit(ctx))

	doc, err := store.Collection("alpha").Get(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	doc, err = store.Collection("beta").Get(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestMemoryStore_TransactionStagesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Collection("alpha").Set(ctx, "1", map[string]any{"v": "old", "keep": true}))

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		doc, err := tx.Get(ctx, "alpha", "1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		tx.MergeSet("alpha", "1", map[string]any{"v": "new"})
		return nil
	})
	require.NoError(t, err)

	doc, err := store.Collection("alpha").Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Data["v"])
	assert.Equal(t, true, doc.Data["keep"])
}

func TestMemoryStore_TransactionErrorDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		tx.MergeSet("alpha", "1", map[string]any{"v": "new"})
		return assert.AnError
	})
	require.Error(t, err)

	doc, err := store.Collection("alpha").Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
