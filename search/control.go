// Package search binds a text input to the search parameter of a History.
//
// The URL is the source of truth. Value reads it back; Input schedules a
// debounced write that replaces the current history entry with the new text,
// or drops the parameter when the text is empty.
package search

import (
	"sync"
	"time"

	"github.com/goforj/usersearch/debounce"
	"github.com/goforj/usersearch/location"
)

// DefaultDelay is the debounce interval between the last keystroke and the
// URL write.
const DefaultDelay = debounce.DefaultDelay

// Option configures a Control.
type Option func(*Control)

// WithDelay overrides DefaultDelay. It is ignored when WithDebouncer is also
// given.
func WithDelay(d time.Duration) Option {
	return func(c *Control) {
		c.delay = d
	}
}

// WithDebouncer supplies the debouncer driving writes.
func WithDebouncer(d *debounce.Debouncer) Option {
	return func(c *Control) {
		c.debouncer = d
	}
}

// WithOnChange registers fn to run after each URL write.
func WithOnChange(fn func(text string)) Option {
	return func(c *Control) {
		c.onChange = fn
	}
}

// Control is one search input synchronized with a History.
type Control struct {
	history   location.History
	delay     time.Duration
	debouncer *debounce.Debouncer
	onChange  func(string)

	mu   sync.Mutex
	text string
}

// NewControl seeds the input with the search text of history's current URL.
func NewControl(history location.History, opts ...Option) *Control {
	c := &Control{history: history, delay: DefaultDelay}
	for _, opt := range opts {
		opt(c)
	}
	if c.debouncer == nil {
		c.debouncer = debounce.New(c.delay)
	}
	c.text = c.Value()
	return c
}

// Value returns the search text held by the URL.
func (c *Control) Value() string {
	return location.SearchText(c.history.Current())
}

// Text returns what the input currently displays. It differs from Value only
// while a write is pending.
func (c *Control) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Pending reports whether a write is waiting for the debounce to elapse.
func (c *Control) Pending() bool {
	return c.debouncer.Pending()
}

// Input records a keystroke. Only the last text entered within one debounce
// interval is written.
func (c *Control) Input(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	c.debouncer.Schedule(func() { c.commit(text) })
}

// Flush writes the pending text now instead of waiting for the debounce. A
// write the timer already started is waited for, so the URL holds the last
// input once Flush returns.
func (c *Control) Flush() {
	c.debouncer.Flush()
}

// Sync reseeds the input from the URL after the history changed underneath
// it. Text typed but not yet written is kept.
func (c *Control) Sync() {
	if c.debouncer.Pending() {
		return
	}
	value := c.Value()
	c.mu.Lock()
	c.text = value
	c.mu.Unlock()
}

// Close discards any pending write. The control accepts no input afterwards.
func (c *Control) Close() {
	c.debouncer.Stop()
}

func (c *Control) commit(text string) {
	current := c.history.Current()
	next := location.WithSearch(current, text)
	if next.String() == current.String() {
		return
	}
	c.history.Replace(next)
	if c.onChange != nil {
		c.onChange(text)
	}
}
