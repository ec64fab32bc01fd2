// Package core provides price parsing and formatting utilities.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice converts a user or OCR supplied amount to a decimal price.
//
// It accepts a leading currency sign and both dot (12.34) and comma (12,34)
// decimal separators. The value is rounded half-up to cents. A lone comma
// followed by exactly three digits could be either separator, so it is
// rejected.
//
// Examples:
//
//	ParsePrice("12.34")  -> 12.34, nil
//	ParsePrice("$3,5")   -> 3.50, nil
//	ParsePrice("1,234")  -> 0, ErrInvalidPrice
//	ParsePrice("-1")     -> 0, ErrNegativePrice
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidPrice
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if len(s)-strings.IndexByte(s, ',')-1 == 3 {
			return decimal.Zero, ErrInvalidPrice
		}
		s = strings.Replace(s, ",", ".", 1)
	} else {
		// thousands separators
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	return d.Round(2), nil
}

// FormatDollars renders d as "$1234.56", or "-$1234.56" when negative.
func FormatDollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Sum adds up the prices of items.
func Sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}
