package metadata

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconv/internal/storage"
)

func TestObjectSink_LocalStore(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	sink := NewObjectSink(store, "/mediaconv/jobs/")
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Write(ctx, newDescriptor(t, "job-a", base)))
	require.NoError(t, sink.Write(ctx, newDescriptor(t, "job-b", base.Add(time.Hour))))

	rc, err := store.GetObject(ctx, "mediaconv/jobs/job-a.json")
	require.NoError(t, err)
	_ = rc.Close()

	found, err := sink.FindByID(ctx, "job-b")
	require.NoError(t, err)
	assert.Equal(t, "/out/job-b.mp4", found.FileOut)
	assert.True(t, base.Add(time.Hour).Equal(found.CreatedAt))

	all, err := sink.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "job-b", all[0].ID)

	_, err = sink.FindByID(ctx, "job-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PutObject(ctx context.Context, key string, data io.Reader) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func TestObjectSink_WriteFailureWrapsErrWrite(t *testing.T) {
	store := new(mockStore)
	store.On("PutObject", mock.Anything, "jobs/job-1.json", mock.Anything).
		Return("", errors.New("bucket unreachable"))

	sink := NewObjectSink(store, "jobs")
	err := sink.Write(context.Background(), newDescriptor(t, "job-1", time.Now()))

	require.ErrorIs(t, err, ErrWrite)
	assert.Contains(t, err.Error(), "bucket unreachable")
	store.AssertExpectations(t)
}

func TestObjectSink_EmptyPrefix(t *testing.T) {
	store := new(mockStore)
	store.On("PutObject", mock.Anything, "job-1.json", mock.Anything).Return("s3://b/job-1.json", nil)

	sink := NewObjectSink(store, "")
	require.NoError(t, sink.Write(context.Background(), newDescriptor(t, "job-1", time.Now())))
	store.AssertExpectations(t)
}
