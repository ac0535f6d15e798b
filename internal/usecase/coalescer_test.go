package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescer_JoinsInFlightRun(t *testing.T) {
	var c Coalescer[int]
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	work := func(context.Context) int {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42
	}

	const callers = 8
	var wg sync.WaitGroup
	values := make([]int, callers)
	shared := make([]bool, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		values[0], shared[0] = c.Do(context.Background(), work)
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i], shared[i] = c.Do(context.Background(), work)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for i := range callers {
		assert.Equal(t, 42, values[i])
		assert.True(t, shared[i])
	}
}

func TestCoalescer_SequentialCallsRunAgain(t *testing.T) {
	var c Coalescer[int]
	var runs atomic.Int32
	work := func(context.Context) int { return int(runs.Add(1)) }

	first, shared := c.Do(context.Background(), work)
	require.False(t, shared)
	second, _ := c.Do(context.Background(), work)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestCoalescer_WorkIgnoresCallerCancellation(t *testing.T) {
	var c Coalescer[error]
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err, _ := c.Do(ctx, func(ctx context.Context) error { return ctx.Err() })

	assert.NoError(t, err)
}
