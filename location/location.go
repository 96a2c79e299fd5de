// Package location holds the page URL that search state is synchronized with.
package location

import (
	"net/url"
	"sync"
)

// SearchParam is the query parameter carrying the search text.
const SearchParam = "search"

// History exposes the current location and replaces it in place. Replace
// never adds an entry to the back/forward stack. Listen registers a callback
// that runs after every Replace, whoever made it.
type History interface {
	Current() *url.URL
	Replace(u *url.URL)
	Listen(fn func(*url.URL))
}

// SearchText returns the search parameter of u, or "" when absent.
func SearchText(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Query().Get(SearchParam)
}

// WithSearch returns a copy of u with the search parameter set to text, or
// removed when text is empty. Other parameters are kept.
func WithSearch(u *url.URL, text string) *url.URL {
	next := clone(u)
	q := next.Query()
	if text == "" {
		q.Del(SearchParam)
	} else {
		q.Set(SearchParam, text)
	}
	next.RawQuery = q.Encode()
	return next
}

// MemoryHistory is an in-process History.
type MemoryHistory struct {
	mu        sync.Mutex
	current   *url.URL
	replaces  int
	listeners []func(*url.URL)
}

// NewMemoryHistory starts at u. A nil u starts at "/".
func NewMemoryHistory(u *url.URL) *MemoryHistory {
	if u == nil {
		u = &url.URL{Path: "/"}
	}
	return &MemoryHistory{current: clone(u)}
}

// Parse starts a MemoryHistory at the parsed raw URL.
func Parse(raw string) (*MemoryHistory, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return NewMemoryHistory(u), nil
}

// Current returns a copy of the current URL.
func (h *MemoryHistory) Current() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.current)
}

// Replace swaps the current URL and notifies listeners.
func (h *MemoryHistory) Replace(u *url.URL) {
	h.mu.Lock()
	h.current = clone(u)
	h.replaces++
	listeners := append([]func(*url.URL){}, h.listeners...)
	current := clone(h.current)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
}

// Replacements counts Replace calls.
func (h *MemoryHistory) Replacements() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaces
}

// Listen registers fn to run after every Replace.
func (h *MemoryHistory) Listen(fn func(*url.URL)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func clone(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{Path: "/"}
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
