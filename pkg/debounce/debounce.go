// Package debounce delays a callback until its input has been quiet for a
// fixed window. The CLI uses it to turn keystroke-level search input into a
// single query.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period used for interactive search.
const DefaultWindow = 500 * time.Millisecond

// Debouncer calls fn with the most recent value once Trigger has not been
// called for the window. It is safe for concurrent use.
type Debouncer[T any] struct {
	window time.Duration
	fn     func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	value   T
	gen     uint64
	stopped bool
}

// New creates a Debouncer. A non-positive window uses DefaultWindow.
func New[T any](window time.Duration, fn func(T)) *Debouncer[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer[T]{window: window, fn: fn}
}

// Trigger records v and restarts the quiet window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.value = v
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// Flush calls fn immediately with the pending value, if any, and reports
// whether it did.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Stop discards any pending value. Trigger is a no-op afterwards.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Pending reports whether a value is waiting for the window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A later Trigger or a Flush superseded this timer.
	if gen != d.gen || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
}

// take must be called with d.mu held.
func (d *Debouncer[T]) take() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	return v
}
