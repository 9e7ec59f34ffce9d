package models

import (
	"strings"
	"time"
)

// SalesRecord is one sale line as reported by the chain's backend.
// A zero Date means the backend sent a date that could not be parsed.
type SalesRecord struct {
	Date      time.Time `json:"date"`
	ProductID string    `json:"product_id,omitempty"`
	Product   string    `json:"product"`
	Category  string    `json:"category,omitempty"`
	Quantity  int       `json:"quantity"`
	Revenue   float64   `json:"revenue"`
	Cost      float64   `json:"cost"`
	Profit    float64   `json:"profit"`
}

type ExpenseType string

const (
	ExpenseRent        ExpenseType = "rent"
	ExpenseSalaries    ExpenseType = "salaries"
	ExpenseUtilities   ExpenseType = "utilities"
	ExpenseSupplies    ExpenseType = "supplies"
	ExpenseMaintenance ExpenseType = "maintenance"
	ExpenseMarketing   ExpenseType = "marketing"
	ExpenseTaxes       ExpenseType = "taxes"
	ExpenseOther       ExpenseType = "other"
)

var expenseTypes = map[ExpenseType]struct{}{
	ExpenseRent:        {},
	ExpenseSalaries:    {},
	ExpenseUtilities:   {},
	ExpenseSupplies:    {},
	ExpenseMaintenance: {},
	ExpenseMarketing:   {},
	ExpenseTaxes:       {},
	ExpenseOther:       {},
}

// ParseExpenseType maps free-form backend categories onto the known set.
// Anything unrecognised becomes ExpenseOther.
func ParseExpenseType(s string) ExpenseType {
	t := ExpenseType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := expenseTypes[t]; ok {
		return t
	}
	return ExpenseOther
}

type ExpenseRecord struct {
	Date        time.Time   `json:"date"`
	Amount      float64     `json:"amount"`
	Type        ExpenseType `json:"type"`
	Description string      `json:"description,omitempty"`
}

// Snapshot is one validated fetch of the records behind a report.
type Snapshot struct {
	Sales        []SalesRecord
	Expenses     []ExpenseRecord
	InvalidDates int
}
