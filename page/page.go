// Package page wires the URL, the search control, the user query and the view
// into one search page.
package page

import (
	"context"
	"net/url"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/directory"
	"github.com/goforj/usersearch/location"
	"github.com/goforj/usersearch/query"
	"github.com/goforj/usersearch/search"
	"github.com/goforj/usersearch/view"
)

// UserQuery is the query type a page drives.
type UserQuery = query.Query[directory.Params, []directory.User]

// UserClient is the query client that user queries share.
type UserClient = query.Client[directory.Params, []directory.User]

// NewUserClient resolves user searches through dir, caching results in c.
func NewUserClient(c *cache.Cache, dir *directory.Client, opts ...query.Option) *UserClient {
	return query.NewClient[directory.Params, []directory.User](c, dir.List, opts...)
}

// Snapshot is what the page shows at one instant.
type Snapshot struct {
	URL   string
	Input string
	State view.State
}

// Page keeps the query in step with the search parameter of history.
type Page struct {
	ctx     context.Context
	history location.History
	control *search.Control
	query   *UserQuery
}

// New starts a page at history's current URL. ctx bounds every fetch the page
// triggers. opts configure the search control.
//
// The query follows the URL, not the control: any Replace on history, from
// the control's debounced write or from elsewhere, re-resolves the search.
func New(ctx context.Context, history location.History, q *UserQuery, opts ...search.Option) *Page {
	p := &Page{ctx: ctx, history: history, query: q}
	p.control = search.NewControl(history, opts...)
	history.Listen(p.onURL)
	p.sync(p.control.Value())
	return p
}

// Input forwards a keystroke to the search control.
func (p *Page) Input(text string) {
	p.control.Input(text)
}

// Control returns the page's search control.
func (p *Page) Control() *search.Control {
	return p.control
}

// Query returns the page's user query.
func (p *Page) Query() *UserQuery {
	return p.query
}

// Subscribe calls fn with a fresh snapshot whenever the query state changes.
func (p *Page) Subscribe(fn func(Snapshot)) {
	p.query.Subscribe(func(query.Result[[]directory.User]) {
		fn(p.Snapshot())
	})
}

// Snapshot returns the current page state.
func (p *Page) Snapshot() Snapshot {
	return Snapshot{
		URL:   p.history.Current().String(),
		Input: p.control.Text(),
		State: view.FromResult(p.query.Result()),
	}
}

// Await waits for the current fetch to settle and returns the snapshot.
func (p *Page) Await(ctx context.Context) (Snapshot, error) {
	if _, err := p.query.Await(ctx); err != nil {
		return p.Snapshot(), err
	}
	return p.Snapshot(), nil
}

// Refetch reloads the current search, bypassing fresh cache entries.
func (p *Page) Refetch() error {
	return p.query.Refetch(p.ctx)
}

// HTML returns the template data for the current state.
func (p *Page) HTML() view.Page {
	s := p.Snapshot()
	return view.Page{Search: s.Input, State: s.State}
}

// Close discards any pending URL write.
func (p *Page) Close() {
	p.control.Close()
}

func (p *Page) onURL(u *url.URL) {
	p.control.Sync()
	p.sync(location.SearchText(u))
}

func (p *Page) sync(text string) {
	p.query.SetParams(p.ctx, directory.Params{Name: text})
}
