// Package schedule provides a scheduler for tests that only runs callbacks
// when told to.
package schedule

import (
	"sync"
	"time"
)

type task struct {
	delay    time.Duration
	fn       func()
	canceled bool
	fired    bool
}

// Manual - records scheduled callbacks; Fire runs the oldest live one.
type Manual struct {
	mu    sync.Mutex
	tasks []*task
}

func NewManual() *Manual {
	return &Manual{}
}

func (that *Manual) Schedule(delay time.Duration, fn func()) func() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	scheduled := &task{delay: delay, fn: fn}
	that.tasks = append(that.tasks, scheduled)

	return func() bool {
		that.mu.Lock()
		defer that.mu.Unlock()

		if scheduled.fired || scheduled.canceled {
			return false
		}

		scheduled.canceled = true

		return true
	}
}

// Pending - number of callbacks neither fired nor canceled.
func (that *Manual) Pending() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	pending := 0
	for _, scheduled := range that.tasks {
		if !scheduled.fired && !scheduled.canceled {
			pending++
		}
	}

	return pending
}

// LastDelay - delay passed to the most recent Schedule call.
func (that *Manual) LastDelay() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.tasks) == 0 {
		return 0
	}

	return that.tasks[len(that.tasks)-1].delay
}

// Fire - runs the oldest pending callback outside the scheduler lock.
// Returns false when nothing is pending.
func (that *Manual) Fire() bool {
	that.mu.Lock()

	var next *task
	for _, scheduled := range that.tasks {
		if !scheduled.fired && !scheduled.canceled {
			next = scheduled
			break
		}
	}

	if next == nil {
		that.mu.Unlock()
		return false
	}

	next.fired = true
	that.mu.Unlock()

	next.fn()

	return true
}

// FireCanceled - runs the most recent callback even if it was canceled,
// the way a timer that fired just before Stop would.
func (that *Manual) FireCanceled() bool {
	that.mu.Lock()

	if len(that.tasks) == 0 {
		that.mu.Unlock()
		return false
	}

	last := that.tasks[len(that.tasks)-1]
	last.fired = true
	that.mu.Unlock()

	last.fn()

	return true
}
