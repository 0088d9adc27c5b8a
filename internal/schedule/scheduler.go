package schedule

// Scheduler coalesces redraw requests. Any number of Schedule calls between two renders
// defer a single Run onto the queue.
type Scheduler struct {
	queue  *Queue
	redraw func()

	redrawScheduled bool
}

// NewScheduler returns a scheduler deferring redraw onto queue.
func NewScheduler(queue *Queue, redraw func()) *Scheduler {
	return &Scheduler{queue: queue, redraw: redraw}
}

// Schedule requests a redraw. It is a no-op while one is already pending.
func (s *Scheduler) Schedule() {
	if s.redrawScheduled {
		return
	}
	s.redrawScheduled = true
	s.queue.Defer(s.Run)
}

// Scheduled reports whether a redraw is pending.
func (s *Scheduler) Scheduled() bool {
	return s.redrawScheduled
}

// Run clears the pending flag and then redraws. A Schedule call made while redraw is
// running therefore defers a fresh frame.
func (s *Scheduler) Run() {
	s.redrawScheduled = false
	s.redraw()
}
