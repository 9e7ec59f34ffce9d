package services

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"pharmacy-dashboard/internal/models"
)

const (
	topProductsLimit = 5
	InvalidDateKey   = "Invalid Date"
)

// BucketKey derives the grouping key of t under granularity g. Keys are
// computed in UTC; weeks start on Sunday.
func BucketKey(t time.Time, g models.Granularity) string {
	if t.IsZero() {
		return InvalidDateKey
	}
	t = t.UTC()

	switch g {
	case models.Daily:
		return t.Format(time.DateOnly)
	case models.Weekly:
		return t.AddDate(0, 0, -int(t.Weekday())).Format(time.DateOnly)
	case models.Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// Aggregate groups sales into calendar buckets and attributes expenses to
// the bucket of the same key. Expenses falling in a bucket without sales are
// not reported. Points are ordered by bucket key.
func Aggregate(sales []models.SalesRecord, expenses []models.ExpenseRecord, g models.Granularity) []models.AggregatedPoint {
	if len(sales) == 0 {
		return []models.AggregatedPoint{}
	}

	buckets := make(map[string]*models.AggregatedPoint)
	for _, s := range sales {
		key := BucketKey(s.Date, g)
		p := buckets[key]
		if p == nil {
			p = &models.AggregatedPoint{BucketKey: key}
			buckets[key] = p
		}
		p.TotalSales += s.Revenue
		p.TotalProfit += s.Profit
	}

	for _, e := range expenses {
		if p, ok := buckets[BucketKey(e.Date, g)]; ok {
			p.TotalExpenses += e.Amount
		}
	}

	// Top products span the whole input, not the bucket.
	top := TopProducts(sales, topProductsLimit)

	points := make([]models.AggregatedPoint, 0, len(buckets))
	for _, p := range buckets {
		p.TotalSales = finiteOrZero(p.TotalSales)
		p.TotalProfit = finiteOrZero(p.TotalProfit)
		p.TotalExpenses = finiteOrZero(p.TotalExpenses)
		p.NetProfit = finiteOrZero(p.TotalProfit - p.TotalExpenses)
		p.TopProducts = slices.Clone(top)
		points = append(points, *p)
	}

	slices.SortFunc(points, func(a, b models.AggregatedPoint) int {
		return strings.Compare(a.BucketKey, b.BucketKey)
	})
	return points
}

// TopProducts sums revenue and quantity per product name and returns the
// limit best sellers by revenue. Equal revenue keeps first-seen order.
func TopProducts(sales []models.SalesRecord, limit int) []models.TopProduct {
	index := make(map[string]int)
	products := make([]models.TopProduct, 0)

	for _, s := range sales {
		i, ok := index[s.Product]
		if !ok {
			i = len(products)
			index[s.Product] = i
			products = append(products, models.TopProduct{Name: s.Product})
		}
		products[i].Value += s.Revenue
		products[i].Quantity += s.Quantity
	}
	for i := range products {
		products[i].Value = finiteOrZero(products[i].Value)
	}

	slices.SortStableFunc(products, func(a, b models.TopProduct) int {
		return cmp.Compare(b.Value, a.Value)
	})

	if len(products) > limit {
		products = products[:limit]
	}
	return products
}
