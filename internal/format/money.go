// Package format renders numbers for display. Values stay float64 until
// they reach this package.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders v rounded to two places with thousands separators, prefixed
// by the currency code. Non-finite values render as zero.
func Money(v float64, currency string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("%s %s%s.%s", currency, sign, groupThousands(whole), frac)
}

// Percent renders v with one decimal and a percent sign.
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%.1f%%", v)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
