package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// manualTimers fires scheduled callbacks only when told to.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) after(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// fireAll runs every timer that has not been stopped.
func (m *manualTimers) fireAll() {
	m.mu.Lock()
	timers := append([]*manualTimer(nil), m.timers...)
	m.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

func TestScheduleKeepsOnlyLastCallback(t *testing.T) {
	timers := &manualTimers{}
	d := New(300*time.Millisecond, WithAfterFunc(timers.after))

	var got []string
	for _, v := range []string{"L", "Le", "Lea"} {
		v := v
		d.Schedule(func() { got = append(got, v) })
	}
	if !d.Pending() {
		t.Fatalf("expected pending callback")
	}
	timers.fireAll()

	if len(got) != 1 || got[0] != "Lea" {
		t.Fatalf("expected single call with last value, got %v", got)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after fire")
	}
	for _, tm := range timers.timers {
		if tm.delay != 300*time.Millisecond {
			t.Fatalf("unexpected delay %v", tm.delay)
		}
	}
}

func TestStaleTimerDoesNotRun(t *testing.T) {
	timers := &manualTimers{}
	d := New(time.Second, WithAfterFunc(timers.after))

	var calls int
	d.Schedule(func() { calls++ })
	first := timers.timers[0]
	d.Schedule(func() { calls += 10 })

	// Simulate the first timer firing after it was replaced.
	first.fn()
	if calls != 0 {
		t.Fatalf("replaced callback ran")
	}
	timers.timers[1].fn()
	if calls != 10 {
		t.Fatalf("expected latest callback, calls = %d", calls)
	}
}

func TestCancelAndStop(t *testing.T) {
	timers := &manualTimers{}
	d := New(0, WithAfterFunc(timers.after))
	if d.Delay() != DefaultDelay {
		t.Fatalf("expected default delay, got %v", d.Delay())
	}

	var calls int
	d.Schedule(func() { calls++ })
	d.Cancel()
	timers.timers[0].fn()
	if calls != 0 || d.Pending() {
		t.Fatalf("cancelled callback ran or still pending")
	}

	d.Schedule(func() { calls++ })
	d.Stop()
	timers.fireAll()
	if calls != 0 {
		t.Fatalf("stopped debouncer ran callback")
	}
	if d.Schedule(func() { calls++ }) {
		t.Fatalf("expected schedule to be rejected after Stop")
	}
}

func TestRealTimerFires(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls atomic.Int32
	done := make(chan struct{})
	d.Schedule(func() {
		calls.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("callback did not fire")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestFlushRunsPendingCallback(t *testing.T) {
	timers := &manualTimers{}
	d := New(time.Second, WithAfterFunc(timers.after))

	var got []string
	d.Schedule(func() { got = append(got, "Leanne") })
	if !d.Flush() {
		t.Fatalf("expected Flush to run the pending callback")
	}
	if len(got) != 1 || d.Pending() {
		t.Fatalf("got=%v pending=%v", got, d.Pending())
	}
	timers.fireAll()
	if len(got) != 1 {
		t.Fatalf("flushed callback ran twice: %v", got)
	}
	if d.Flush() {
		t.Fatalf("expected nothing to flush")
	}
}

func TestFlushWaitsForFiringCallback(t *testing.T) {
	timers := &manualTimers{}
	d := New(time.Second, WithAfterFunc(timers.after))

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	d.Schedule(func() {
		close(entered)
		<-release
		finished.Store(true)
	})
	go timers.fireAll()
	<-entered
	if !d.Pending() {
		t.Fatalf("expected a running callback to count as pending")
	}

	flushed := make(chan struct{})
	go func() {
		d.Flush()
		close(flushed)
	}()
	select {
	case <-flushed:
		t.Fatalf("Flush returned while the callback was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatalf("Flush never returned")
	}
	if !finished.Load() || d.Pending() {
		t.Fatalf("finished=%v pending=%v", finished.Load(), d.Pending())
	}
}
