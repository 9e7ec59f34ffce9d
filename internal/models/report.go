package models

import "time"

type TopProduct struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Quantity int     `json:"quantity"`
}

// AggregatedPoint is one chart point: the totals of a single calendar bucket.
type AggregatedPoint struct {
	BucketKey     string       `json:"bucket_key"`
	TotalSales    float64      `json:"total_sales"`
	TotalProfit   float64      `json:"total_profit"`
	TotalExpenses float64      `json:"total_expenses"`
	NetProfit     float64      `json:"net_profit"`
	TopProducts   []TopProduct `json:"top_products"`
}

type Insights struct {
	Trend           float64 `json:"trend"`
	CurrentAverage  float64 `json:"current_average"`
	PreviousAverage float64 `json:"previous_average"`
}

type Totals struct {
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	Expenses  float64 `json:"expenses"`
	NetProfit float64 `json:"net_profit"`
}

type Report struct {
	Query               Query             `json:"query"`
	Points              []AggregatedPoint `json:"points"`
	Growth              string            `json:"growth"`
	Insights            Insights          `json:"insights"`
	Totals              Totals            `json:"totals"`
	SalesToExpenseRatio float64           `json:"sales_to_expense_ratio"`
	ProfitMargin        float64           `json:"profit_margin"`
	SalesCount          int               `json:"sales_count"`
	ExpenseCount        int               `json:"expense_count"`
	InvalidDates        int               `json:"invalid_dates"`
	GeneratedAt         time.Time         `json:"generated_at"`
}
