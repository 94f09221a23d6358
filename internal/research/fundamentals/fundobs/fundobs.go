package fundobs

import (
	"context"
	"time"

	"fundamentals-ranker/internal/interfaces"
	"fundamentals-ranker/internal/logger"
	"fundamentals-ranker/internal/research/fundamentals"
	"fundamentals-ranker/internal/trace"
)

// observableRanker wraps a Ranker with logging and tracing
type observableRanker struct {
	inner interfaces.Ranker
}

// Wrap wraps a Ranker with observability middleware
func Wrap(ranker interfaces.Ranker) interfaces.Ranker {
	return &observableRanker{inner: ranker}
}

func (o *observableRanker) Config() fundamentals.Config {
	return o.inner.Config()
}

// Rank wraps the Rank method with logging and tracing
func (o *observableRanker) Rank(ctx context.Context, symbols []string) (*fundamentals.Table, error) {
	granularity := o.inner.Config().Granularity.String()
	ctx, span := trace.StartSpan(ctx, "fundamentals.Rank")
	defer span.End()

	fields := trace.GetTraceFields(ctx)
	fields["granularity"] = granularity
	fields["symbol_count"] = len(symbols)

	logger.InfoSkip(ctx, 1, "Starting fundamentals ranking", fields)
	start := time.Now()

	table, err := o.inner.Rank(ctx, symbols)

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorSkip(ctx, 1, "Fundamentals ranking failed", fields)
		span.RecordError(err)
		return nil, err
	}

	fields["run_id"] = table.RunID
	fields["row_count"] = len(table.Rows)
	fields["diagnostic_count"] = len(table.Diagnostics)
	fields["periods"] = len(table.Periods)
	if len(table.Rows) > 0 {
		top := table.Rows[0]
		fields["top_pick_symbol"] = top.Symbol
		fields["top_pick_score"] = top.FinalScore
	}

	logger.InfoSkip(ctx, 1, "Fundamentals ranking completed", fields)

	return table, nil
}
