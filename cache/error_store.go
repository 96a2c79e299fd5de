package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMissingClient is reported when a networked driver is selected without its client.
var ErrMissingClient = errors.New("cache: driver client not configured")

// errorStore stands in for a driver that failed to initialize; it keeps the
// driver identity and surfaces the construction error on every call.
type errorStore struct {
	driver Driver
	err    error
}

func (e *errorStore) Driver() Driver                                    { return e.driver }
func (e *errorStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, e.err }
func (e *errorStore) Set(context.Context, string, []byte, time.Duration) error {
	return e.err
}
func (e *errorStore) Delete(context.Context, string) error        { return e.err }
func (e *errorStore) DeleteMany(context.Context, ...string) error { return e.err }
func (e *errorStore) Flush(context.Context) error                 { return e.err }
