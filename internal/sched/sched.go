// Package sched provides the batching primitive that coalesces repeated
// invalidation requests into a single callback per batching boundary.
//
// A Trigger defines where the batching boundary falls: Manual boundaries
// fire when the host says so (tests, frame loops), Timer boundaries fire
// after a quiet interval. Coalesce binds a callback to a trigger and
// returns an invoker that is idempotent within one boundary window.
package sched

import (
	"sync"
	"time"
)

// Trigger schedules a function to run at the next batching boundary.
type Trigger interface {
	Schedule(fn func())
}

// Coalesce returns an invoker bound to trigger. Any number of invoker
// calls within one batching window schedule callback exactly once; after
// the callback runs, the next call opens a new window.
func Coalesce(trigger Trigger, callback func()) func() {
	var mu sync.Mutex
	scheduled := false
	return func() {
		mu.Lock()
		if scheduled {
			mu.Unlock()
			return
		}
		scheduled = true
		mu.Unlock()

		trigger.Schedule(func() {
			mu.Lock()
			scheduled = false
			mu.Unlock()
			callback()
		})
	}
}

// Manual is a trigger whose batching boundary is an explicit Fire call.
// The zero value is ready to use.
type Manual struct {
	mu  sync.Mutex
	fns []func()
}

// Schedule queues fn for the next Fire.
func (m *Manual) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
}

// Fire runs all queued functions in order. Functions scheduled while
// firing run at the next Fire.
func (m *Manual) Fire() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Pending returns the number of queued functions.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

// Timer is a trigger whose batching boundary falls a fixed delay after
// scheduling.
type Timer struct {
	Delay time.Duration
}

// Schedule runs fn after the configured delay.
func (t *Timer) Schedule(fn func()) {
	time.AfterFunc(t.Delay, fn)
}
