package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsPostedWorkInOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := range 5 {
		l.Post(func() { got = append(got, i) })
	}
	l.Post(l.Stop)

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromManyGoroutines(t *testing.T) {
	l := NewLoop()
	const n = 50
	count := 0

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() {
				count++
				if count == n {
					l.Stop()
				}
			})
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	wg.Wait()
	assert.Equal(t, n, count)
}

func TestLoop_ContextCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestLoop_PostAfterStopIsNoop(t *testing.T) {
	l := NewLoop()
	l.Stop()
	l.Stop()

	ran := false
	l.Post(func() { ran = true })
	require.NoError(t, l.Run(context.Background()))
	assert.False(t, ran)

	select {
	case <-l.Stopped():
	default:
		t.Fatal("Stopped channel not closed")
	}
}

func TestLoop_Running(t *testing.T) {
	l := NewLoop()
	assert.False(t, l.Running())
	var inside bool
	l.Post(func() {
		inside = l.Running()
		l.Stop()
	})
	require.NoError(t, l.Run(context.Background()))
	assert.True(t, inside)
	assert.False(t, l.Running())
}
