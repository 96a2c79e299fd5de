// Package debounce delays a callback until input has been quiet for a fixed
// interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet interval used by interactive search input.
const DefaultDelay = 300 * time.Millisecond

// Timer is the subset of *time.Timer a Debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d and returns a handle that can stop it.
type AfterFunc func(d time.Duration, fn func()) Timer

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(after AfterFunc) Option {
	return func(d *Debouncer) {
		if after != nil {
			d.after = after
		}
	}
}

// Debouncer runs at most one pending callback. Scheduling again before the
// delay elapses replaces the pending callback and restarts the delay.
type Debouncer struct {
	delay time.Duration
	after AfterFunc

	mu      sync.Mutex
	idle    *sync.Cond
	timer   Timer
	fn      func()
	seq     uint64
	firing  int
	stopped bool
}

// New returns a Debouncer with the given delay. A non-positive delay uses
// DefaultDelay.
func New(delay time.Duration, opts ...Option) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{
		delay: delay,
		after: func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) },
	}
	d.idle = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay reports the quiet interval.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any unfired callback with fn. It reports false once the
// Debouncer is stopped.
func (d *Debouncer) Schedule(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.cancelLocked()
	d.seq++
	seq := d.seq
	d.fn = fn
	d.timer = d.after(d.delay, func() {
		d.mu.Lock()
		// A timer that lost the race with Stop, Flush or a newer Schedule must
		// not run.
		if d.stopped || seq != d.seq || d.timer == nil {
			d.mu.Unlock()
			return
		}
		run := d.takeLocked()
		d.mu.Unlock()
		d.run(run)
	})
	return true
}

// Flush runs the pending callback now instead of at the end of the delay.
// A callback the timer already started is waited for first, so callbacks
// never overlap with a flushed one. It reports whether Flush itself ran a
// callback.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	for d.firing > 0 {
		d.idle.Wait()
	}
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.seq++
	run := d.takeLocked()
	d.mu.Unlock()
	d.run(run)
	return true
}

// Cancel discards the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
}

// Stop cancels the pending callback and rejects further schedules.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.stopped = true
	d.mu.Unlock()
}

// Pending reports whether a callback is waiting to fire or still running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil || d.firing > 0
}

// takeLocked claims the pending callback and marks it as firing.
func (d *Debouncer) takeLocked() func() {
	fn := d.fn
	d.timer = nil
	d.fn = nil
	d.firing++
	return fn
}

func (d *Debouncer) run(fn func()) {
	defer func() {
		d.mu.Lock()
		d.firing--
		if d.firing == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	fn()
}

func (d *Debouncer) cancelLocked() {
	if d.timer == nil {
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.fn = nil
	d.seq++
}
