package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"pharmacy-dashboard/internal/models"
)

type stubFetcher struct {
	mu       sync.Mutex
	snapshot *models.Snapshot
	err      error
	calls    int
	token    string
	query    models.Query
}

func (s *stubFetcher) Fetch(_ context.Context, token string, q models.Query) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.token = token
	s.query = q
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(&stubFetcher{}, nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should default when nil")
	}
}

func TestAnalytics_Report(t *testing.T) {
	fetcher := &stubFetcher{snapshot: &models.Snapshot{
		Sales:        sampleSales(),
		Expenses:     []models.ExpenseRecord{{Date: day("2024-01-01"), Amount: 30}},
		InvalidDates: 1,
	}}
	a := NewAnalytics(fetcher, quietLogger())
	fixed := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	q := models.Query{Scope: models.ScopeBranch, ID: "b-1", TimeRange: models.Range7Days, Granularity: models.Daily}
	report, err := a.Report(context.Background(), "secret", q)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if fetcher.token != "secret" || fetcher.query != q {
		t.Errorf("fetcher called with token %q query %+v", fetcher.token, fetcher.query)
	}
	if len(report.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(report.Points))
	}
	if report.Points[0].NetProfit != 10 || report.Points[1].NetProfit != 20 {
		t.Errorf("net profit = %v, %v; want 10, 20", report.Points[0].NetProfit, report.Points[1].NetProfit)
	}
	if report.Growth != "0.0" {
		t.Errorf("Growth = %q, want 0.0", report.Growth)
	}
	if report.Totals.Sales != 150 || report.Totals.Expenses != 30 {
		t.Errorf("Totals = %+v", report.Totals)
	}
	if report.SalesToExpenseRatio != 5 {
		t.Errorf("SalesToExpenseRatio = %v, want 5", report.SalesToExpenseRatio)
	}
	if report.SalesCount != 2 || report.ExpenseCount != 1 || report.InvalidDates != 1 {
		t.Errorf("counts = %d/%d/%d", report.SalesCount, report.ExpenseCount, report.InvalidDates)
	}
	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixed)
	}

	stats := a.Stats()
	if stats["reports_generated"] != int64(1) {
		t.Errorf("reports_generated = %v, want 1", stats["reports_generated"])
	}
	if stats["sales_records"] != int64(2) || stats["invalid_dates"] != int64(1) {
		t.Errorf("stats = %v", stats)
	}
	if _, ok := stats["last_report_at"]; !ok {
		t.Error("expected last_report_at after a report")
	}
}

func TestAnalytics_Report_FetchFailure(t *testing.T) {
	boom := errors.New("backend down")
	a := NewAnalytics(&stubFetcher{err: boom}, quietLogger())

	report, err := a.Report(context.Background(), "t", models.Query{Scope: models.ScopeCompany, TimeRange: models.Range30Days, Granularity: models.Monthly})
	if !errors.Is(err, boom) {
		t.Fatalf("Report() error = %v, want wrapping %v", err, boom)
	}
	if report != nil {
		t.Error("no report should be built from a failed fetch")
	}

	stats := a.Stats()
	if stats["fetch_failures"] != int64(1) || stats["reports_generated"] != int64(0) {
		t.Errorf("stats = %v", stats)
	}
	if _, ok := stats["last_report_at"]; ok {
		t.Error("last_report_at should be absent before any report")
	}
}

func TestAnalytics_Report_EmptySnapshot(t *testing.T) {
	a := NewAnalytics(&stubFetcher{snapshot: &models.Snapshot{}}, quietLogger())

	report, err := a.Report(context.Background(), "t", models.Query{Scope: models.ScopeCompany, TimeRange: models.Range1Year, Granularity: models.Yearly})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(report.Points) != 0 || report.Growth != "0.0" || report.ProfitMargin != 0 || report.Insights.Trend != 0 {
		t.Errorf("expected zeroed report, got %+v", report)
	}
}

func TestAnalytics_Report_OverflowIsEncodable(t *testing.T) {
	sales := []models.SalesRecord{
		{Date: day("2024-01-01"), Product: "A", Revenue: 1e308},
		{Date: day("2024-01-02"), Product: "B", Revenue: 1e308},
		{Date: day("2024-01-03"), Product: "C", Revenue: 1e308},
	}
	a := NewAnalytics(&stubFetcher{snapshot: &models.Snapshot{Sales: sales}}, quietLogger())

	report, err := a.Report(context.Background(), "t", models.Query{Scope: models.ScopeCompany, TimeRange: models.Range7Days, Granularity: models.Daily})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Totals.Sales != 0 || report.ProfitMargin != 0 || report.Insights.Trend != 0 {
		t.Errorf("non-finite totals leaked: %+v", report.Totals)
	}
	if _, err := json.Marshal(report); err != nil {
		t.Errorf("report must encode, got %v", err)
	}
}

func TestAnalytics_ConcurrentReports(t *testing.T) {
	a := NewAnalytics(&stubFetcher{snapshot: &models.Snapshot{Sales: sampleSales()}}, quietLogger())
	q := models.Query{Scope: models.ScopeCompany, TimeRange: models.Range30Days, Granularity: models.Weekly}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Report(context.Background(), "t", q); err != nil {
				t.Errorf("Report() error = %v", err)
			}
			_ = a.Stats()
		}()
	}
	wg.Wait()

	if got := a.Stats()["reports_generated"]; got != int64(10) {
		t.Errorf("reports_generated = %v, want 10", got)
	}
}
