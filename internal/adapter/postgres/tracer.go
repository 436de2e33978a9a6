package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Observer receives one call per finished query.
type Observer interface {
	ObserveQuery(driver, op string, took time.Duration, err error)
}

// QueryTracer implements pgx.QueryTracer and reports query latency by
// statement verb.
type QueryTracer struct {
	obs Observer
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(obs Observer) *QueryTracer {
	return &QueryTracer{obs: obs}
}

type traceKey struct{}

type traceStart struct {
	at time.Time
	op string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), op: queryVerb(data.SQL)})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	t.obs.ObserveQuery("postgres", start.op, time.Since(start.at), data.Err)
}

// queryVerb keeps label cardinality bounded: "select", "insert", ...
func queryVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
