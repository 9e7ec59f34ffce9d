package services

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"pharmacy-dashboard/internal/models"
)

const zeroGrowth = "0.0"

// SafeDiv returns num/den, or 0 when den is zero or the result is not finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finiteOrZero(num / den)
}

// finiteOrZero maps NaN and ±Inf to 0 so overflowed sums never reach JSON.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// GrowthRate compares the most recent period of points against the one
// before it and returns the change in sales as a percentage with one decimal.
func GrowthRate(points []models.AggregatedPoint, tr models.TimeRange) string {
	n := tr.Periods()
	ordered := datedPoints(points)
	slices.Reverse(ordered)

	current := ordered[:min(n, len(ordered))]
	var previous []models.AggregatedPoint
	if len(ordered) > n {
		previous = ordered[n:min(2*n, len(ordered))]
	}
	if len(current) == 0 || len(previous) == 0 {
		return zeroGrowth
	}

	currentTotal := sumSales(current)
	previousTotal := sumSales(previous)
	if previousTotal == 0 {
		return zeroGrowth
	}

	growth := (currentTotal - previousTotal) / previousTotal * 100
	if math.IsNaN(growth) || math.IsInf(growth, 0) {
		return zeroGrowth
	}
	return fmt.Sprintf("%.1f", growth)
}

// Trend compares the average sales of the last n points with the average of
// the n points before them.
func Trend(points []models.AggregatedPoint, n int) models.Insights {
	ordered := datedPoints(points)
	if n <= 0 || len(ordered) == 0 {
		return models.Insights{}
	}

	split := max(len(ordered)-n, 0)
	current := ordered[split:]
	previous := ordered[max(split-n, 0):split]

	curAvg := SafeDiv(sumSales(current), float64(len(current)))
	prevAvg := SafeDiv(sumSales(previous), float64(len(previous)))

	return models.Insights{
		Trend:           finiteOrZero(SafeDiv(curAvg-prevAvg, prevAvg) * 100),
		CurrentAverage:  curAvg,
		PreviousAverage: prevAvg,
	}
}

func ComputeTotals(points []models.AggregatedPoint) models.Totals {
	var t models.Totals
	for _, p := range points {
		t.Sales += p.TotalSales
		t.Profit += p.TotalProfit
		t.Expenses += p.TotalExpenses
		t.NetProfit += p.NetProfit
	}
	t.Sales = finiteOrZero(t.Sales)
	t.Profit = finiteOrZero(t.Profit)
	t.Expenses = finiteOrZero(t.Expenses)
	t.NetProfit = finiteOrZero(t.NetProfit)
	return t
}

func SalesToExpenseRatio(t models.Totals) float64 {
	return SafeDiv(t.Sales, t.Expenses)
}

// ProfitMargin is gross profit as a percentage of sales.
func ProfitMargin(t models.Totals) float64 {
	return finiteOrZero(SafeDiv(t.Profit, t.Sales) * 100)
}

// datedPoints returns the points with a real date, ordered by bucket key.
func datedPoints(points []models.AggregatedPoint) []models.AggregatedPoint {
	out := make([]models.AggregatedPoint, 0, len(points))
	for _, p := range points {
		if p.BucketKey != InvalidDateKey {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.AggregatedPoint) int {
		return strings.Compare(a.BucketKey, b.BucketKey)
	})
	return out
}

func sumSales(points []models.AggregatedPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.TotalSales
	}
	return total
}
