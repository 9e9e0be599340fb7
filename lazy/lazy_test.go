package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueBuildsOnce(t *testing.T) {
	var builds int32
	v := New(func(ctx context.Context) (*int, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(10 * time.Millisecond)
		n := 42
		return &n, nil
	})

	const callers = 32
	results := make([]*int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := v.Get(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestValueRetriesAfterFailure(t *testing.T) {
	calls := 0
	v := New(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	_, err := v.Get(context.Background())
	require.EqualError(t, err, "boom")

	_, ready := v.Peek()
	assert.False(t, ready)

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestValueReset(t *testing.T) {
	calls := 0
	v := New(func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	first, _ := v.Get(context.Background())
	v.Reset()
	second, _ := v.Get(context.Background())

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestCanceledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var buildErr error
	v := New(func(ctx context.Context) (string, error) {
		close(started)
		<-release
		buildErr = ctx.Err()
		return "ready", nil
	})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := v.Get(first)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		got, err := v.Get(context.Background())
		assert.NoError(t, err)
		second <- got
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "ready", <-second)
	assert.NoError(t, buildErr, "the shared build should not see a caller's cancellation")

	got, ok := v.Peek()
	assert.True(t, ok)
	assert.Equal(t, "ready", got)
}
