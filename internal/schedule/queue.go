package schedule

// Queue is a FIFO of deferred tasks. Tasks run only when Flush is called, so callers
// decide when the "next scheduling opportunity" happens. A Queue is not safe for
// concurrent use; it belongs to the goroutine running the Loop.
type Queue struct {
	tasks []func()
}

// Defer appends fn to the queue.
func (q *Queue) Defer(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Flush runs the tasks queued before the call, in order. Tasks deferred while flushing
// stay queued for the next Flush. It returns the number of tasks run.
func (q *Queue) Flush() int {
	batch := q.tasks
	q.tasks = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}
