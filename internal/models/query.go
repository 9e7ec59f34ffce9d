package models

import "fmt"

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case "":
		return Monthly, nil
	case Daily, Weekly, Monthly, Yearly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	Range1Year  TimeRange = "1y"
)

func ParseTimeRange(s string) (TimeRange, error) {
	switch tr := TimeRange(s); tr {
	case "":
		return Range30Days, nil
	case Range7Days, Range30Days, Range90Days, Range1Year:
		return tr, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Periods is the number of points that make up one comparison period.
func (tr TimeRange) Periods() int {
	switch tr {
	case Range7Days:
		return 7
	case Range90Days:
		return 90
	case Range1Year:
		return 365
	default:
		return 30
	}
}

type Scope string

const (
	ScopeCompany Scope = "company"
	ScopeBranch  Scope = "branch"
	ScopeProduct Scope = "product"
)

// Query selects which slice of the chain's history a report covers.
type Query struct {
	Scope       Scope       `json:"scope"`
	ID          string      `json:"id,omitempty"`
	TimeRange   TimeRange   `json:"time_range"`
	Granularity Granularity `json:"granularity"`
}

func ParseQuery(scope, id, timeRange, granularity string) (Query, error) {
	q := Query{Scope: Scope(scope), ID: id}
	switch q.Scope {
	case "":
		q.Scope = ScopeCompany
	case ScopeCompany:
	case ScopeBranch, ScopeProduct:
		if id == "" {
			return Query{}, fmt.Errorf("scope %q requires an id", scope)
		}
	default:
		return Query{}, fmt.Errorf("unknown scope %q", scope)
	}

	tr, err := ParseTimeRange(timeRange)
	if err != nil {
		return Query{}, err
	}
	q.TimeRange = tr

	g, err := ParseGranularity(granularity)
	if err != nil {
		return Query{}, err
	}
	q.Granularity = g

	return q, nil
}
