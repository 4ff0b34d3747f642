package database

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
)

type slowQuerySettings struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueryConfig atomic.Pointer[slowQuerySettings]

// SetSlowQueryLogging enables warning logs for queries slower than threshold.
// It may be called at any time; passing a zero threshold disables logging.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueryConfig.Store(nil)
		return
	}
	slowQueryConfig.Store(&slowQuerySettings{threshold: threshold, logger: logger})
}

type queryStartKey struct{}

type queryStartInfo struct {
	sql   string
	start time.Time
}

// QueryTracer implements pgx.QueryTracer and logs slow queries when
// SetSlowQueryLogging has been called.
type QueryTracer struct{}

func (QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if slowQueryConfig.Load() == nil {
		return ctx
	}
	return context.WithValue(ctx, queryStartKey{}, queryStartInfo{sql: data.SQL, start: time.Now()})
}

func (QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	cfg := slowQueryConfig.Load()
	if cfg == nil {
		return
	}
	info, ok := ctx.Value(queryStartKey{}).(queryStartInfo)
	if !ok {
		return
	}
	elapsed := time.Since(info.start)
	if elapsed < cfg.threshold {
		return
	}
	cfg.logger.WarnContext(ctx, "slow query",
		slog.Duration("elapsed", elapsed),
		slog.String("sql", info.sql),
	)
}
