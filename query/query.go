package query

import (
	"context"
	"sync"
	"time"
)

// Result is the state of a Query as seen by the presentation layer.
type Result[T any] struct {
	// Loading is true while the first value for the current key is in flight and
	// there is nothing to show in the meantime.
	Loading bool
	// Fetching is true whenever a load for the current key is in flight.
	Fetching bool
	Err      error
	Data     T
	HasData  bool
	// Placeholder marks Data as belonging to the previous key.
	Placeholder bool
	UpdatedAt   time.Time
}

// IsError reports whether the last load for the current key failed.
func (r Result[T]) IsError() bool {
	return r.Err != nil
}

// Query tracks one logical query whose params change over time. Only the
// latest params may settle the result; loads for superseded params finish in
// the background and populate the cache but are otherwise ignored.
type Query[P Params, T any] struct {
	client *Client[P, T]

	mu      sync.Mutex
	started bool
	key     string
	params  P
	gen     uint64
	result  Result[T]
	settled chan struct{}
	subs    []func(Result[T])

	// notifyMu orders deliveries; delivered is the newest generation
	// subscribers have seen.
	notifyMu  sync.Mutex
	delivered uint64
}

// NewQuery creates an idle query; call SetParams to start it.
func NewQuery[P Params, T any](client *Client[P, T]) *Query[P, T] {
	settled := make(chan struct{})
	close(settled)
	return &Query[P, T]{client: client, settled: settled, result: Result[T]{Loading: true}}
}

// Subscribe registers fn to receive state changes. Callbacks run one at a
// time and never see a generation older than one already delivered, so the
// last state a subscriber receives matches Result. fn must not call SetParams
// or Refetch on the same query.
func (q *Query[P, T]) Subscribe(fn func(Result[T])) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.subs = append(q.subs, fn)
	q.mu.Unlock()
}

// Result returns the current state.
func (q *Query[P, T]) Result() Result[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.result
}

// Params returns the params the query currently tracks.
func (q *Query[P, T]) Params() P {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.params
}

// SetParams points the query at params. Setting the same key again is a no-op.
// While the new key loads, data resolved for the previous key stays visible as
// placeholder data.
func (q *Query[P, T]) SetParams(ctx context.Context, params P) {
	key := params.Key()
	q.mu.Lock()
	if q.started && key == q.key {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.key = key
	q.params = params
	q.startLocked(ctx)
}

// Refetch reloads the current params, bypassing a fresh cache entry.
func (q *Query[P, T]) Refetch(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	params := q.params
	q.mu.Unlock()

	if err := q.client.Invalidate(ctx, params); err != nil {
		return err
	}
	q.mu.Lock()
	if params.Key() != q.key {
		q.mu.Unlock()
		return nil
	}
	q.startLocked(ctx)
	return nil
}

// Await blocks until the current load settles or ctx is done, then returns
// the state.
func (q *Query[P, T]) Await(ctx context.Context) (Result[T], error) {
	for {
		q.mu.Lock()
		settled, gen := q.settled, q.gen
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return q.Result(), ctx.Err()
		case <-settled:
		}

		q.mu.Lock()
		if q.gen == gen {
			res := q.result
			q.mu.Unlock()
			return res, nil
		}
		q.mu.Unlock()
	}
}

// startLocked begins a load for the current params. It must be called with
// q.mu held and releases it.
func (q *Query[P, T]) startLocked(ctx context.Context) {
	q.gen++
	gen := q.gen
	params := q.params
	settled := make(chan struct{})
	q.settled = settled

	prev := q.result
	next := Result[T]{Fetching: true}
	if prev.HasData {
		next.Data = prev.Data
		next.HasData = true
		next.Placeholder = true
		next.UpdatedAt = prev.UpdatedAt
	} else {
		next.Loading = true
	}
	q.result = next
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()
	q.publish(gen, subs, next)

	go func() {
		value, fetchedAt, err := q.client.Fetch(ctx, params)

		q.mu.Lock()
		if gen != q.gen {
			close(settled)
			q.mu.Unlock()
			return
		}
		var res Result[T]
		if err != nil {
			res = Result[T]{Err: err}
		} else {
			res = Result[T]{Data: value, HasData: true, UpdatedAt: fetchedAt}
		}
		q.result = res
		subs := q.snapshotSubsLocked()
		q.mu.Unlock()
		q.publish(gen, subs, res)
		close(settled)
	}()
}

func (q *Query[P, T]) snapshotSubsLocked() []func(Result[T]) {
	return append([]func(Result[T]){}, q.subs...)
}

// publish hands res to subs unless a newer generation was already delivered.
func (q *Query[P, T]) publish(gen uint64, subs []func(Result[T]), res Result[T]) {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()
	if gen < q.delivered {
		return
	}
	q.delivered = gen
	for _, fn := range subs {
		fn(res)
	}
}
