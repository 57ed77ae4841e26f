// Package fx converts expense amounts between USD and ARS.
//
// Two independent USD→ARS rates exist (blue and tarjeta). Plain "ARS"/"USD"
// amounts follow the process-wide selected rate type; rate-qualified
// currencies ("USD-Blue", "USD-Tarjeta") always use their own rate regardless
// of the selection. A zero or unset rate never divides: the conversion yields
// 0 instead.
package fx

import (
	"math"
	"strconv"
	"strings"

	"retromoney/internal/core"
)

type RateType string

const (
	RateBlue    RateType = "blue"
	RateTarjeta RateType = "tarjeta"
)

// Valid reports whether t is a known rate type.
func (t RateType) Valid() bool {
	return t == RateBlue || t == RateTarjeta
}

// Rates holds the two tracked USD→ARS quotes.
type Rates struct {
	Blue    float64
	Tarjeta float64
}

// Selected returns the rate matching the selected type.
func (r Rates) Selected(t RateType) float64 {
	if t == RateTarjeta {
		return r.Tarjeta
	}
	return r.Blue
}

// rateFor resolves the rate an expense currency converts at. Rate-qualified
// currencies pin their own rate; everything else follows the selection.
func rateFor(cur core.Currency, r Rates, sel RateType) float64 {
	switch cur {
	case core.CurrencyUSDBlue:
		return r.Blue
	case core.CurrencyUSDTarjeta:
		return r.Tarjeta
	default:
		return r.Selected(sel)
	}
}

// ToUSD returns the USD-equivalent of amount, rounded to 2 decimals.
func ToUSD(amount float64, cur core.Currency, r Rates, sel RateType) float64 {
	if cur.IsARS() {
		rate := r.Selected(sel)
		if rate <= 0 {
			return 0
		}
		return core.Round2(amount / rate)
	}
	return core.Round2(amount)
}

// ToARS returns the ARS-equivalent of amount, rounded to 2 decimals.
func ToARS(amount float64, cur core.Currency, r Rates, sel RateType) float64 {
	if cur.IsARS() {
		return core.Round2(amount)
	}
	return core.Round2(amount * rateFor(cur, r, sel))
}

// FormatUSD renders a USD amount with exactly 2 decimal places.
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(core.Round2(v), 'f', 2, 64)
}

// FormatARS renders an ARS amount without decimals when integral, otherwise
// with up to 2 decimals and trailing zeros trimmed.
func FormatARS(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = core.Round2(v)
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
