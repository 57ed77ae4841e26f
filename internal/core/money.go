// Package core holds the domain types of the ledger.
//
// This file contains parsing of monetary amounts from user input. Inputs may
// carry currency decoration ("$1,234.56", "ARS 1500") which is stripped before
// parsing; commas are thousands separators, the decimal separator is a dot.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount to a float rounded to 2 decimal
// places. It rejects non-numeric and non-positive values.
//
// Examples:
//
//	ParseAmount("12.345") -> 12.35 (half-up on the third decimal)
//	ParseAmount("$1,234.50") -> 1234.50
//	ParseAmount("ARS 1500") -> 1500
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "ARS")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return Round2(v), nil
}

// Round2 rounds to 2 decimal places, half away from zero. Every monetary
// value crossing a package boundary is expected to be rounded with this.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
