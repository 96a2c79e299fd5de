package cache

import (
	"context"
	"time"
)

// nullStore never retains anything; every query goes to the network.
type nullStore struct{}

func newNullStore() Store { return nullStore{} }

func (nullStore) Driver() Driver { return DriverNull }

func (nullStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (nullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nullStore) Delete(context.Context, string) error { return nil }

func (nullStore) DeleteMany(context.Context, ...string) error { return nil }

func (nullStore) Flush(context.Context) error { return nil }
