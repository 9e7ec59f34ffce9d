package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pharmacy-dashboard/internal/models"
)

const (
	maxReportedProblems = 10
	maxQuantity         = math.MaxInt32
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ValidationError lists every record the backend sent that breaks the
// record contract. Problems are prefixed with the record index.
type ValidationError struct {
	Kind     string
	Problems []string
}

func (e *ValidationError) Error() string {
	shown := e.Problems
	if len(shown) > maxReportedProblems {
		shown = shown[:maxReportedProblems]
	}
	msg := fmt.Sprintf("%d invalid %s records: %s", len(e.Problems), e.Kind, strings.Join(shown, "; "))
	if len(e.Problems) > maxReportedProblems {
		msg += "; ..."
	}
	return msg
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexNumber accepts a JSON number or a numeric string.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %s", b)
	}
	*f = flexNumber(v)
	return nil
}

type rawSale struct {
	Date        flexString  `json:"date"`
	ProductID   flexString  `json:"productId"`
	Product     flexString  `json:"product"`
	ProductName flexString  `json:"productName"`
	Category    flexString  `json:"category"`
	Quantity    flexNumber  `json:"quantity"`
	Revenue     flexNumber  `json:"revenue"`
	Cost        flexNumber  `json:"cost"`
	Profit      *flexNumber `json:"profit"`
}

type rawExpense struct {
	Date        flexString `json:"date"`
	Amount      flexNumber `json:"amount"`
	Type        flexString `json:"type"`
	Description flexString `json:"description"`
}

// ParseSales decodes and validates a sales payload. Records with an
// unparseable date are kept with a zero date and counted in invalidDates.
func ParseSales(body []byte) (sales []models.SalesRecord, invalidDates int, err error) {
	raws, err := decodeList[rawSale](body)
	if err != nil {
		return nil, 0, fmt.Errorf("decode sales: %w", err)
	}

	var problems []string
	revenue := runningTotal{field: "revenue"}
	cost := runningTotal{field: "cost"}
	profit := runningTotal{field: "profit"}
	sales = make([]models.SalesRecord, 0, len(raws))
	for i, r := range raws {
		name := string(r.ProductName)
		if name == "" {
			name = string(r.Product)
		}

		rec := models.SalesRecord{
			ProductID: string(r.ProductID),
			Product:   name,
			Category:  string(r.Category),
			Quantity:  int(r.Quantity),
			Revenue:   float64(r.Revenue),
			Cost:      float64(r.Cost),
		}
		if r.Profit != nil {
			rec.Profit = float64(*r.Profit)
		} else {
			rec.Profit = rec.Revenue - rec.Cost
		}

		if name == "" {
			problems = append(problems, fmt.Sprintf("#%d: product name is required", i))
		}
		if q := float64(r.Quantity); q < 0 || q > maxQuantity || q != math.Trunc(q) {
			problems = append(problems, fmt.Sprintf("#%d: quantity must be a non-negative integer up to %d, got %v", i, maxQuantity, q))
			rec.Quantity = 0
		}
		problems = appendAmountProblems(problems, i, "revenue", rec.Revenue)
		problems = appendAmountProblems(problems, i, "cost", rec.Cost)
		if !finite(rec.Profit) {
			problems = append(problems, fmt.Sprintf("#%d: profit must be finite", i))
		}

		problems = revenue.add(problems, i, rec.Revenue)
		problems = cost.add(problems, i, rec.Cost)
		problems = profit.add(problems, i, math.Abs(rec.Profit))

		var ok bool
		if rec.Date, ok = parseDate(string(r.Date)); !ok {
			invalidDates++
		}
		sales = append(sales, rec)
	}

	if len(problems) > 0 {
		return nil, 0, &ValidationError{Kind: "sales", Problems: problems}
	}
	return sales, invalidDates, nil
}

func ParseExpenses(body []byte) (expenses []models.ExpenseRecord, invalidDates int, err error) {
	raws, err := decodeList[rawExpense](body)
	if err != nil {
		return nil, 0, fmt.Errorf("decode expenses: %w", err)
	}

	var problems []string
	amount := runningTotal{field: "amount"}
	expenses = make([]models.ExpenseRecord, 0, len(raws))
	for i, r := range raws {
		rec := models.ExpenseRecord{
			Amount:      float64(r.Amount),
			Type:        models.ParseExpenseType(string(r.Type)),
			Description: string(r.Description),
		}
		problems = appendAmountProblems(problems, i, "amount", rec.Amount)
		problems = amount.add(problems, i, rec.Amount)

		var ok bool
		if rec.Date, ok = parseDate(string(r.Date)); !ok {
			invalidDates++
		}
		expenses = append(expenses, rec)
	}

	if len(problems) > 0 {
		return nil, 0, &ValidationError{Kind: "expense", Problems: problems}
	}
	return expenses, invalidDates, nil
}

// decodeList accepts either a bare JSON array or a {"data": [...]} envelope.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func appendAmountProblems(problems []string, i int, field string, v float64) []string {
	switch {
	case !finite(v):
		return append(problems, fmt.Sprintf("#%d: %s must be finite", i, field))
	case v < 0:
		return append(problems, fmt.Sprintf("#%d: %s must not be negative, got %v", i, field, v))
	}
	return problems
}

// runningTotal flags the record at which a sum of finite values overflows,
// since every bucket and report total is built from such sums.
type runningTotal struct {
	field    string
	sum      float64
	overflow bool
}

func (t *runningTotal) add(problems []string, i int, v float64) []string {
	if t.overflow || !finite(v) {
		return problems
	}
	t.sum += v
	if math.IsInf(t.sum, 0) {
		t.overflow = true
		return append(problems, fmt.Sprintf("#%d: %s total overflows", i, t.field))
	}
	return problems
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
