package ceiobs

import (
	"context"
	"time"

	"cei-crawler/internal/interfaces"
	"cei-crawler/internal/logger"
	"cei-crawler/internal/trace"
	"cei-crawler/internal/types"
)

// observableCrawler wraps a Crawler with observability (logging & tracing)
type observableCrawler struct {
	crawler interfaces.Crawler
}

// Compile-time interface check
var _ interfaces.Crawler = (*observableCrawler)(nil)

// Wrap wraps a crawler with observability middleware
func Wrap(crawler interfaces.Crawler) interfaces.Crawler {
	return &observableCrawler{
		crawler: crawler,
	}
}

// Brokers lists brokers with observability
func (oc *observableCrawler) Brokers(ctx context.Context) ([]types.Broker, error) {
	ctx, span := trace.StartSpan(ctx, "cei.Brokers")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching brokers")

	brokers, err := oc.crawler.Brokers(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch brokers", err)
		return nil, err
	}

	trace.SetAttributes(span, "brokers", len(brokers))
	logger.InfoSkip(ctx, 1, "Brokers fetched successfully", "count", len(brokers))
	return brokers, nil
}

// AssetsExtract fetches the trade history with observability
func (oc *observableCrawler) AssetsExtract(ctx context.Context, q interfaces.AssetsQuery) ([]types.AssetExtract, error) {
	ctx, span := trace.StartSpan(ctx, "cei.AssetsExtract")
	defer span.End()

	fields := []any{"brokers", len(q.Brokers), "start", dateField(q.Start), "end", dateField(q.End)}
	trace.SetAttributes(span, fields...)
	logger.DebugSkip(ctx, 1, "Fetching assets extract", fields...)

	extracts, err := oc.crawler.AssetsExtract(ctx, q)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch assets extract", err, fields...)
		return nil, err
	}

	if len(extracts) == 0 {
		logger.WarnSkip(ctx, 1, "Assets extract is empty", fields...)
		return extracts, nil
	}
	logger.InfoSkip(ctx, 1, "Assets extract fetched successfully", append(fields, "records", len(extracts))...)
	return extracts, nil
}

// PassiveIncomesExtract fetches dividend-like events with observability
func (oc *observableCrawler) PassiveIncomesExtract(ctx context.Context, date time.Time) ([]types.PassiveIncome, error) {
	ctx, span := trace.StartSpan(ctx, "cei.PassiveIncomesExtract")
	defer span.End()

	trace.SetAttributes(span, "date", dateField(date))
	logger.DebugSkip(ctx, 1, "Fetching passive incomes extract", "date", dateField(date))

	incomes, err := oc.crawler.PassiveIncomesExtract(ctx, date)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch passive incomes extract", err, "date", dateField(date))
		return nil, err
	}

	if len(incomes) == 0 {
		logger.WarnSkip(ctx, 1, "Passive incomes extract is empty", "date", dateField(date))
		return incomes, nil
	}
	logger.InfoSkip(ctx, 1, "Passive incomes extract fetched successfully", "date", dateField(date), "records", len(incomes))
	return incomes, nil
}

// Close releases the crawler with observability
func (oc *observableCrawler) Close() error {
	if err := oc.crawler.Close(); err != nil {
		logger.ErrorWithErrSkip(context.Background(), 1, "Failed to close crawler", err)
		return err
	}
	return nil
}

func dateField(t time.Time) string {
	if t.IsZero() {
		return "latest"
	}
	return t.Format(time.DateOnly)
}
