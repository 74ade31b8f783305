package archive

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/logging"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestArchive(client s3API) *Archive {
	clock := &clockx.Fake{Current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	a := NewFromClient(client, "civicdeck-raw", clock, logging.NopLogger{})
	a.newID = func() string { return "0f0f0f0f" }
	return a
}

func TestPutJSON_KeyLayoutAndBody(t *testing.T) {
	fake := &fakeS3{}
	a := newTestArchive(fake)

	key, err := a.PutJSON(context.Background(), "propublica", "K000377", map[string]any{
		"first_name": "Laura",
	})
	require.NoError(t, err)
	assert.Equal(t, "raw/propublica/2024/06/01/K000377-0f0f0f0f.json", key)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "civicdeck-raw", *in.Bucket)
	assert.Equal(t, key, *in.Key)
	assert.Equal(t, "application/json", *in.ContentType)

	raw, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Laura", body["first_name"])
}

func TestPutJSON_PutError(t *testing.T) {
	fake := &fakeS3{err: assert.AnError}
	a := newTestArchive(fake)

	_, err := a.PutJSON(context.Background(), "propublica", "K000377", map[string]any{})
	assert.ErrorContains(t, err, "put object")
}

func TestPutJSON_UnmarshalablePayload(t *testing.T) {
	fake := &fakeS3{}
	a := newTestArchive(fake)

	_, err := a.PutJSON(context.Background(), "propublica", "K000377", func() {})
	assert.ErrorContains(t, err, "marshal archive payload")
	assert.Empty(t, fake.inputs)
}
