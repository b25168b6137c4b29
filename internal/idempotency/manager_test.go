package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_ExecutesOnce(t *testing.T) {
	m := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	var calls int32
	fn := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "done", nil
	}

	key := GenerateKey(int64(42), 7, "flow_confirm")

	first, err := m.Execute(ctx, key, time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := m.Execute(ctx, key, time.Minute, fn)
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestManager_ConcurrentPressesRunOnce(t *testing.T) {
	m := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fn := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil, nil
	}

	key := GenerateKey(int64(42), 7, "flow_confirm")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = m.Execute(ctx, key, time.Minute, fn)
	}()

	// Give the first press time to take the lock.
	time.Sleep(50 * time.Millisecond)

	_, err := m.Execute(ctx, key, time.Minute, fn)
	assert.ErrorIs(t, err, ErrRequestInProgress)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestManager_FailureIsNotCached(t *testing.T) {
	m := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	key := GenerateKey(int64(1), 2, "flow_confirm")

	var calls int32
	_, err := m.Execute(ctx, key, time.Minute, func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("submission failed")
	})
	require.Error(t, err)

	// A failed operation may be retried; only successes are deduplicated.
	result, err := m.Execute(ctx, key, time.Minute, func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateKey_Deterministic(t *testing.T) {
	a := GenerateKey(int64(42), 7, "flow_confirm")
	b := GenerateKey(int64(42), 7, "flow_confirm")
	c := GenerateKey(int64(42), 8, "flow_confirm")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
