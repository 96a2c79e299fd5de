package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/directory"
	"github.com/goforj/usersearch/query"
)

const instrumentationName = "github.com/goforj/usersearch"

// Observer records directory requests, cache operations and query fetches as
// spans and, when a logger is set, as log lines. Cache hits and misses are
// traced but only cache failures are logged.
type Observer struct {
	tracer trace.Tracer
	logger *log.Logger
}

// NewObserver uses tracer, or the global provider's tracer when nil.
func NewObserver(tracer trace.Tracer, logger *log.Logger) *Observer {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return &Observer{tracer: tracer, logger: logger}
}

var (
	_ directory.Observer = (*Observer)(nil)
	_ cache.Observer     = (*Observer)(nil)
	_ query.Observer     = (*Observer)(nil)
)

// OnRequest implements directory.Observer.
func (o *Observer) OnRequest(ctx context.Context, params directory.Params, status string, err error, dur time.Duration) {
	o.span(ctx, "directory.list", dur, err,
		attribute.String("directory.name", params.Name),
		attribute.String("http.status_text", status),
	)
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Printf("directory list name=%q status=%q took=%s err=%v", params.Name, status, dur, err)
		return
	}
	o.logger.Printf("directory list name=%q status=%q took=%s", params.Name, status, dur)
}

// OnCacheOp implements cache.Observer.
func (o *Observer) OnCacheOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver cache.Driver) {
	o.span(ctx, "cache."+op, dur, err,
		attribute.String("cache.key", key),
		attribute.Bool("cache.hit", hit),
		attribute.String("cache.driver", string(driver)),
	)
	if o.logger != nil && err != nil {
		o.logger.Printf("cache %s key=%q driver=%s err=%v", op, key, driver, err)
	}
}

// OnFetch implements query.Observer.
func (o *Observer) OnFetch(ctx context.Context, key string, source query.Source, err error, dur time.Duration) {
	o.span(ctx, "query.fetch", dur, err,
		attribute.String("query.key", key),
		attribute.String("query.source", string(source)),
	)
}

// span records a finished operation that started dur ago.
func (o *Observer) span(ctx context.Context, name string, dur time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := o.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-dur)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}
