package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueue_FlushRunsOnlyEarlierTasks(t *testing.T) {
	var q Queue
	var order []string

	q.Defer(func() {
		order = append(order, "a")
		q.Defer(func() { order = append(order, "c") })
	})
	q.Defer(func() { order = append(order, "b") })

	assert.Equal(t, 2, q.Flush())
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 1, q.Flush())
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, q.Flush())
}

func TestScheduler_CoalescesRequests(t *testing.T) {
	tests := []struct {
		name      string
		mutations int
	}{
		{"single", 1},
		{"a few", 5},
		{"many", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Queue
			renders := 0
			s := NewScheduler(&q, func() { renders++ })

			for i := 0; i < tt.mutations; i++ {
				s.Schedule()
			}
			assert.True(t, s.Scheduled())
			assert.Equal(t, 1, q.Len())

			q.Flush()
			assert.Equal(t, 1, renders)
			assert.False(t, s.Scheduled())
		})
	}
}

func TestScheduler_NothingScheduledNothingRendered(t *testing.T) {
	var q Queue
	renders := 0
	NewScheduler(&q, func() { renders++ })

	q.Flush()
	assert.Equal(t, 0, renders)
}

func TestScheduler_ScheduleDuringRedrawGetsOneMoreFrame(t *testing.T) {
	var q Queue
	renders := 0
	var s *Scheduler
	s = NewScheduler(&q, func() {
		renders++
		if renders == 1 {
			// Mutations arriving mid-render.
			s.Schedule()
			s.Schedule()
		}
	})

	s.Schedule()
	q.Flush()
	assert.Equal(t, 1, renders)
	assert.True(t, s.Scheduled())

	q.Flush()
	assert.Equal(t, 2, renders)

	q.Flush()
	assert.Equal(t, 2, renders)
}

func TestLoop_CoalescesPendingPosts(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop()
	var mu sync.Mutex
	renders := 0
	rendered := make(chan struct{}, 8)
	s := NewScheduler(loop.Queue(), func() {
		mu.Lock()
		renders++
		mu.Unlock()
		rendered <- struct{}{}
	})

	for i := 0; i < 50; i++ {
		loop.Post(s.Schedule)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	<-rendered
	barrier := make(chan struct{})
	loop.Post(func() { close(barrier) })
	<-barrier

	mu.Lock()
	assert.Equal(t, 1, renders)
	mu.Unlock()

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoop_PostFromManyGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	const workers, each = 8, 100
	count := 0
	finished := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				loop.Post(func() {
					count++ // loop goroutine only
					if count == workers*each {
						close(finished)
					}
				})
			}
		}()
	}
	wg.Wait()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("posts did not drain")
	}

	cancel()
	require.Error(t, <-done)
}

func TestLoop_TaskDeferredDuringFlushRunsNextTurn(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop()
	second := make(chan struct{})
	loop.Post(func() {
		loop.Queue().Defer(func() {
			loop.Queue().Defer(func() { close(second) })
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred task never ran")
	}
	cancel()
	<-done
}
