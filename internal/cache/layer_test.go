package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) ObserveCache(_ string, hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLayerReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{}
	layer := NewLayer(NewMemoryStore(), time.Minute, quietLogger(), obs)

	calls := 0
	comments := []string{"first"}
	layer.Register("comments", func(_ context.Context, id string) (interface{}, error) {
		calls++
		return comments, nil
	})

	key := Key{Kind: "comments", ID: "7"}
	got, err := Fetch[[]string](ctx, layer, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, got)

	got, err = Fetch[[]string](ctx, layer, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, got)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)

	comments = append(comments, "second")
	require.NoError(t, layer.Invalidate(ctx, key))
	assert.Equal(t, 2, calls)

	got, err = Fetch[[]string](ctx, layer, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, 2, calls)
}

func TestLayerInvalidateDropsKeyOnLoaderError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	layer := NewLayer(store, time.Minute, quietLogger(), nil)

	fail := false
	layer.Register("segments", func(_ context.Context, _ string) (interface{}, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return []int{1}, nil
	})

	key := Key{Kind: "segments", ID: "1"}
	_, err := layer.Get(ctx, key)
	require.NoError(t, err)

	fail = true
	err = layer.Invalidate(ctx, key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	_, err = store.Get(ctx, key.String())
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLayerUnknownKind(t *testing.T) {
	layer := NewLayer(NewMemoryStore(), time.Minute, quietLogger(), nil)
	_, err := layer.Get(context.Background(), Key{Kind: "nope", ID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no loader registered")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	b, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "forever"))
	_, err = store.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrMiss)
}
