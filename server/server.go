// Package server renders the user search page over HTTP. The request URL is
// the page location: GET / resolves its search parameter and renders the
// result, and a form submitted with empty text is redirected to the URL
// without the parameter.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/goforj/usersearch/location"
	"github.com/goforj/usersearch/page"
	"github.com/goforj/usersearch/query"
	"github.com/goforj/usersearch/view"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithMiddleware wraps the routed handler. Middleware added first runs
// outermost.
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		if mw != nil {
			s.middleware = append(s.middleware, mw)
		}
	}
}

// Server serves the search page.
type Server struct {
	addr       string
	users      *page.UserClient
	middleware []func(http.Handler) http.Handler
	httpServer *http.Server
}

// New builds a server on addr that resolves searches through users.
func New(addr string, users *page.UserClient, opts ...Option) *Server {
	s := &Server{addr: addr, users: users}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the routed and logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", s.handlePage)

	var h http.Handler = logRequests(mux)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has(location.SearchParam) && q.Get(location.SearchParam) == "" {
		http.Redirect(w, r, location.WithSearch(r.URL, "").String(), http.StatusSeeOther)
		return
	}

	p := page.New(r.Context(), location.NewMemoryHistory(r.URL), query.NewQuery(s.users))
	defer p.Close()
	if _, err := p.Await(r.Context()); err != nil {
		// Client went away.
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderHTML(w, p.HTML()); err != nil {
		log.Printf("render page: %v", err)
	}
}

// ListenAndServe runs the HTTP server until ctx ends, then drains in-flight
// requests within a bounded shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	serveErr := make(chan error, 1)
	log.Printf("user search listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
