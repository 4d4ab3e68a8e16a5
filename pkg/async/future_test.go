package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoResolvesWithValue(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGoResolvesWithError(t *testing.T) {
	boom := errors.New("boom")
	f := Go(context.Background(), func(context.Context) (string, error) {
		return "", boom
	})

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFirstResolutionWins(t *testing.T) {
	f := FromCallback(func(cb func(int, error)) {
		cb(1, nil)
		cb(2, errors.New("late"))
	})

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestConcurrentResolveIsSingle(t *testing.T) {
	f, resolve := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolve(i, nil)
		}(i)
	}
	wg.Wait()

	first, err := f.Result()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v, _ := f.Await(context.Background())
		assert.Equal(t, first, v)
	}
}

func TestAwaitCancelledLeavesFutureUsable(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (string, error) {
		<-release
		return "done", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = f.Result()
	assert.ErrorIs(t, err, ErrPending)

	close(release)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestResolved(t *testing.T) {
	f := Resolved("x", nil)

	select {
	case <-f.Done():
	default:
		t.Fatal("resolved future must be done")
	}
	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
