package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/observability"
)

// Fetcher loads the raw records behind a report on behalf of token.
type Fetcher interface {
	Fetch(ctx context.Context, token string, q models.Query) (*models.Snapshot, error)
}

type Analytics struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time

	reports         atomic.Int64
	salesRecords    atomic.Int64
	expenseRecords  atomic.Int64
	invalidDates    atomic.Int64
	fetchFailures   atomic.Int64
	mu              sync.RWMutex
	lastGeneratedAt time.Time
}

func NewAnalytics(fetcher Fetcher, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Report fetches a fresh snapshot for q and aggregates it. Nothing is
// aggregated when the fetch fails.
func (a *Analytics) Report(ctx context.Context, token string, q models.Query) (*models.Report, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.report")
	defer span.Finish(a.logger)
	span.SetTag("scope", string(q.Scope))
	span.SetTag("granularity", string(q.Granularity))

	snap, err := a.fetcher.Fetch(ctx, token, q)
	if err != nil {
		a.fetchFailures.Add(1)
		span.SetError(err)
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	points := Aggregate(snap.Sales, snap.Expenses, q.Granularity)
	totals := ComputeTotals(points)

	report := &models.Report{
		Query:               q,
		Points:              points,
		Growth:              GrowthRate(points, q.TimeRange),
		Insights:            Trend(points, q.TimeRange.Periods()),
		Totals:              totals,
		SalesToExpenseRatio: SalesToExpenseRatio(totals),
		ProfitMargin:        ProfitMargin(totals),
		SalesCount:          len(snap.Sales),
		ExpenseCount:        len(snap.Expenses),
		InvalidDates:        snap.InvalidDates,
		GeneratedAt:         a.now().UTC(),
	}

	a.reports.Add(1)
	a.salesRecords.Add(int64(len(snap.Sales)))
	a.expenseRecords.Add(int64(len(snap.Expenses)))
	a.invalidDates.Add(int64(snap.InvalidDates))
	a.mu.Lock()
	a.lastGeneratedAt = report.GeneratedAt
	a.mu.Unlock()

	a.logger.Debug("report generated",
		"scope", q.Scope,
		"id", q.ID,
		"granularity", q.Granularity,
		"time_range", q.TimeRange,
		"points", len(points),
		"request_id", observability.GetRequestID(ctx),
	)
	return report, nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	last := a.lastGeneratedAt
	a.mu.RUnlock()

	stats := map[string]any{
		"reports_generated": a.reports.Load(),
		"sales_records":     a.salesRecords.Load(),
		"expense_records":   a.expenseRecords.Load(),
		"invalid_dates":     a.invalidDates.Load(),
		"fetch_failures":    a.fetchFailures.Load(),
	}
	if !last.IsZero() {
		stats["last_report_at"] = last
	}
	return stats
}
