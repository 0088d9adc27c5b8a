package schedule

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Loop is the single goroutine that owns the dashboard state. Other goroutines hand work
// to it with Post; everything posted runs on the goroutine calling Run, one func at a time.
//
// Each turn of the loop runs every pending post, then flushes the Queue. Redraws deferred
// by those posts therefore see all of them.
type Loop struct {
	queue *Queue

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewLoop creates a loop with an empty queue.
func NewLoop() *Loop {
	return &Loop{
		queue: &Queue{},
		wake:  make(chan struct{}, 1),
	}
}

// Queue returns the loop's deferred task queue. Only use it from posted funcs.
func (l *Loop) Queue() *Queue {
	return l.queue
}

// Post schedules fn to run on the loop. It never blocks and is safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

// Run processes posts until ctx is done. Posts still pending at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(l.take()); n > 0 {
				log.Debug().Int("dropped", n).Msg("loop stopped with pending posts")
			}
			return ctx.Err()
		case <-l.wake:
		}

		for {
			batch := l.take()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				fn()
			}
		}
		l.queue.Flush()

		// Tasks deferred during the flush get their own turn.
		if l.queue.Len() > 0 {
			l.signal()
		}
	}
}
