package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/directory"
	"github.com/goforj/usersearch/page"
	"github.com/goforj/usersearch/view"
)

func newUsersAPI(t *testing.T, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		users := []directory.User{{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz"}}
		if r.URL.Query().Get("name") == "nobody" {
			users = nil
		}
		if users == nil {
			_, _ = io.WriteString(w, "[]")
			return
		}
		_ = json.NewEncoder(w).Encode(users)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, apiURL string) http.Handler {
	t.Helper()
	c := cache.NewCache(cache.NewMemoryStore(context.Background()))
	return New("127.0.0.1:0", page.NewUserClient(c, directory.NewClient(apiURL))).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPageRendersUsers(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, newUsersAPI(t, http.StatusOK, &calls).URL)

	rec := get(t, h, "/?search=Leanne")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<li data-key="1">Leanne Graham</li>`) {
		t.Fatalf("missing row: %s", body)
	}
	if !strings.Contains(body, `value="Leanne"`) {
		t.Fatalf("input not seeded from URL: %s", body)
	}

	_ = get(t, h, "/?search=Leanne")
	if calls.Load() != 1 {
		t.Fatalf("expected second render from cache, got %d calls", calls.Load())
	}
}

func TestPageEmptyAndErrorStates(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, newUsersAPI(t, http.StatusOK, &calls).URL)
	if body := get(t, h, "/?search=nobody").Body.String(); !strings.Contains(body, view.EmptyText) {
		t.Fatalf("expected empty indicator: %s", body)
	}

	h = newTestHandler(t, newUsersAPI(t, http.StatusInternalServerError, &calls).URL)
	body := get(t, h, "/?search=x").Body.String()
	if !strings.Contains(body, view.ErrorText) || strings.Contains(body, "<li") {
		t.Fatalf("expected error indicator only: %s", body)
	}
}

func TestEmptySearchRedirects(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, newUsersAPI(t, http.StatusOK, &calls).URL)

	rec := get(t, h, "/?page=2&search=")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?page=2" {
		t.Fatalf("Location = %q", loc)
	}
	if calls.Load() != 0 {
		t.Fatalf("redirect must not fetch")
	}
}

func TestHealthzAndUnknownPath(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, newUsersAPI(t, http.StatusOK, &calls).URL)

	if rec := get(t, h, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, h, "/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	c := cache.NewCache(cache.NewMemoryStore(context.Background()))
	s := New("127.0.0.1:0", page.NewUserClient(c, directory.NewClient("http://127.0.0.1:1")))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestMiddlewareWrapsHandler(t *testing.T) {
	var calls atomic.Int32
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	c := cache.NewCache(cache.NewMemoryStore(context.Background()))
	users := page.NewUserClient(c, directory.NewClient(newUsersAPI(t, http.StatusOK, &calls).URL))
	h := New("127.0.0.1:0", users, WithMiddleware(mw("outer")), WithMiddleware(mw("inner"))).Handler()

	_ = get(t, h, "/healthz")
	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("middleware order = %v", order)
	}
}
