package backends

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/configuration"
)

type aStruct struct {
	Thing string
}

func TestInMemoryBackend_GetAndSetKey(t *testing.T) {
	backend := &InMemoryBackend{}
	require.NoError(t, backend.Init(nil))
	ctx := context.Background()

	require.NoError(t, backend.SetKey(ctx, "test-key", aStruct{Thing: "Test"}, 0))

	target := aStruct{}
	require.NoError(t, backend.GetKey(ctx, "test-key", &target))
	assert.Equal(t, "Test", target.Thing)

	require.NoError(t, backend.DeleteKey(ctx, "test-key"))
	assert.ErrorIs(t, backend.GetKey(ctx, "test-key", &target), ErrNotFound)
}

func TestInMemoryBackend_TTL(t *testing.T) {
	backend := &InMemoryBackend{}
	require.NoError(t, backend.Init(nil))
	ctx := context.Background()

	require.NoError(t, backend.SetKey(ctx, "short", aStruct{Thing: "x"}, 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	assert.ErrorIs(t, backend.GetKey(ctx, "short", &aStruct{}), ErrNotFound)
}

func TestInMemoryBackend_Incr(t *testing.T) {
	backend := &InMemoryBackend{}
	require.NoError(t, backend.Init(nil))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := backend.Incr(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := backend.Incr(ctx, "window", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	time.Sleep(40 * time.Millisecond)
	n, err = backend.Incr(ctx, "window", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a new window starts after expiry")
}

func TestInMemoryBackend_Uninitialised(t *testing.T) {
	backend := &InMemoryBackend{}
	assert.Error(t, backend.SetKey(context.Background(), "k", 1, 0))
}

func TestFromConfig(t *testing.T) {
	b, err := FromConfig(configuration.KV{})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryBackend{}, b)

	_, err = FromConfig(configuration.KV{Backend: "etcd"})
	assert.Error(t, err)
}
