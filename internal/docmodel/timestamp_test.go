package docmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/logging"
)

func TestStorageTimestamp_RoundTripIsExact(t *testing.T) {
	for _, millis := range []int64{0, 1, 1700000000123, -62135596800000} {
		ts := ToStorageTimestamp(millis)
		got, err := FromStorageTimestamp(ts)
		require.NoError(t, err)
		assert.Equal(t, millis, got)
	}
}

func TestFromStorageTimestamp_WrongType(t *testing.T) {
	_, err := FromStorageTimestamp(int64(1700000000123))
	require.Error(t, err)

	var tme *common.TypeMismatchError
	assert.True(t, errors.As(err, &tme))
}

func TestConvertMillisToTimestamps(t *testing.T) {
	ctx := context.Background()
	log := logging.NopLogger{}

	rec := Record{
		"date":  int64(1700000000123),
		"title": "headline",
	}

	out := ConvertMillisToTimestamps(ctx, rec, []string{"date", "missing"}, log)

	assert.Equal(t, primitive.DateTime(1700000000123), out["date"])
	assert.Equal(t, "headline", out["title"])
	assert.NotContains(t, out, "missing")

	// Input untouched.
	assert.Equal(t, int64(1700000000123), rec["date"])
}

func TestConvertMillisToTimestamps_AlreadyConvertedPassesThrough(t *testing.T) {
	ctx := context.Background()
	rec := Record{"date": primitive.DateTime(5)}

	out := ConvertMillisToTimestamps(ctx, rec, []string{"date"}, logging.NopLogger{})

	assert.Equal(t, primitive.DateTime(5), out["date"])
}

func TestConvertTimestampsToMillis(t *testing.T) {
	ctx := context.Background()
	log := logging.NopLogger{}

	rec := Record{
		"date":  primitive.DateTime(1700000000123),
		"title": "headline",
	}

	out, err := ConvertTimestampsToMillis(ctx, rec, []string{"date", "missing"}, log)
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000123), out["date"])
	assert.Equal(t, "headline", out["title"])
}

func TestConvertTimestampsToMillis_WrongTypeFails(t *testing.T) {
	ctx := context.Background()
	rec := Record{"date": "not a timestamp"}

	_, err := ConvertTimestampsToMillis(ctx, rec, []string{"date"}, logging.NopLogger{})
	require.Error(t, err)

	var tme *common.TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Equal(t, "date", tme.Field)
}
