package format

import (
	"math"
	"testing"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "NGN 0.00"},
		{5, "NGN 5.00"},
		{999.995, "NGN 1,000.00"},
		{1234.5, "NGN 1,234.50"},
		{1234567.891, "NGN 1,234,567.89"},
		{-42000.1, "NGN -42,000.10"},
		{0.1 + 0.2, "NGN 0.30"},
		{math.NaN(), "NGN 0.00"},
		{math.Inf(-1), "NGN 0.00"},
	}

	for _, tt := range tests {
		if got := Money(tt.v, "NGN"); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{12.345, "12.3%"},
		{-50, "-50.0%"},
		{math.NaN(), "0.0%"},
	}

	for _, tt := range tests {
		if got := Percent(tt.v); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	for in, want := range map[string]string{
		"1":       "1",
		"123":     "123",
		"1234":    "1,234",
		"123456":  "123,456",
		"1234567": "1,234,567",
	} {
		if got := groupThousands(in); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}
