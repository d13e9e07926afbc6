package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

// Label values used when a query runs outside a labelled operation or an
// HTTP request (schema setup, seed import).
const (
	unlabelled = "unlabelled"
	noRequest  = "none"
)

type operationKey struct{}

type queryKey struct{}

// pendingQuery travels on the context from TraceQueryStart to TraceQueryEnd.
type pendingQuery struct {
	op    string
	sql   string
	start time.Time
}

// WithOperation labels every query issued under ctx with op, the store
// operation that owns it (e.g. "pgstore.List").
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return unlabelled
}

// requestLabels returns the HTTP method and chi route pattern of the request
// that issued the query.
func requestLabels(ctx context.Context) (method, route string) {
	rc := chi.RouteContext(ctx)
	if rc == nil {
		return noRequest, noRequest
	}
	method, route = rc.RouteMethod, rc.RoutePattern()
	if method == "" {
		method = noRequest
	}
	if route == "" {
		route = noRequest
	}
	return method, route
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// QueryObserver receives one observation per finished query.
type QueryObserver interface {
	ObserveQuery(op, method, route, outcome string, dur time.Duration)
}

// QueryObserverFunc adapts a plain function to QueryObserver.
type QueryObserverFunc func(op, method, route, outcome string, dur time.Duration)

// ObserveQuery implements QueryObserver.
func (f QueryObserverFunc) ObserveQuery(op, method, route, outcome string, dur time.Duration) {
	f(op, method, route, outcome, dur)
}

type observerHolder struct{ QueryObserver }

var observer atomic.Pointer[observerHolder]

// SetQueryObserver installs the process-wide query observer. nil removes it.
func SetQueryObserver(o QueryObserver) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerHolder{QueryObserver: o})
}

func currentObserver() QueryObserver {
	if h := observer.Load(); h != nil {
		return h.QueryObserver
	}
	return nil
}

// queryTracer logs and measures every query and delegates span handling to
// next (otelpgx in NewPool).
type queryTracer struct {
	next pgx.QueryTracer
}

func newQueryTracer(next pgx.QueryTracer) *queryTracer {
	return &queryTracer{next: next}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	start := time.Now()
	if t.next != nil {
		ctx = t.next.TraceQueryStart(ctx, conn, data)
	}

	op := operationFrom(ctx)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("warden.store.operation", op))
	}
	return context.WithValue(ctx, queryKey{}, &pendingQuery{op: op, sql: data.SQL, start: start})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.next != nil {
		t.next.TraceQueryEnd(ctx, conn, data)
	}

	q, ok := ctx.Value(queryKey{}).(*pendingQuery)
	if !ok {
		return
	}
	dur := time.Since(q.start)
	method, route := requestLabels(ctx)
	outcome := outcomeOf(data.Err)

	if obs := currentObserver(); obs != nil {
		obs.ObserveQuery(q.op, method, route, outcome, dur)
	}

	fields := []any{
		"db.operation", q.op,
		"db.statement", q.sql,
		"db.duration", dur.Seconds(),
		"http.route", route,
	}
	if data.Err == nil {
		fields = append(fields, "db.rows", data.CommandTag.RowsAffected())
		log.FromContext(ctx).Debug(ctx, "db query", fields...)
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(data.Err, &pgErr) {
		fields = append(fields, "db.error_code", pgErr.Code)
	}
	log.FromContext(ctx).Error(ctx, data.Err, "db query failed", fields...)
}
