package fx

import (
	"math"
	"testing"

	"retromoney/internal/core"
)

var testRates = Rates{Blue: 1000, Tarjeta: 1600}

func TestToUSD(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		cur    core.Currency
		sel    RateType
		want   float64
	}{
		{"ars via blue", 1000, core.CurrencyARS, RateBlue, 1},
		{"ars via tarjeta", 1600, core.CurrencyARS, RateTarjeta, 1},
		{"usd-blue passes through", 100, core.CurrencyUSDBlue, RateTarjeta, 100},
		{"usd-tarjeta passes through", 100, core.CurrencyUSDTarjeta, RateBlue, 100},
		{"legacy usd passes through", 50, core.CurrencyUSD, RateBlue, 50},
		{"rounded to cents", 1, core.CurrencyARS, RateBlue, 0}, // 0.001 -> 0.00
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToUSD(tc.amount, tc.cur, testRates, tc.sel); got != tc.want {
				t.Fatalf("ToUSD = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestToUSDZeroRateGuard(t *testing.T) {
	if got := ToUSD(500, core.CurrencyARS, Rates{}, RateBlue); got != 0 {
		t.Fatalf("zero rate must yield 0, got %v", got)
	}
}

func TestToARS(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		cur    core.Currency
		sel    RateType
		want   float64
	}{
		{"ars passes through", 1500, core.CurrencyARS, RateBlue, 1500},
		{"usd-blue uses blue rate", 100, core.CurrencyUSDBlue, RateTarjeta, 100000},
		{"usd-tarjeta uses tarjeta rate", 100, core.CurrencyUSDTarjeta, RateBlue, 160000},
		{"legacy usd follows selection", 100, core.CurrencyUSD, RateTarjeta, 160000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToARS(tc.amount, tc.cur, testRates, tc.sel); got != tc.want {
				t.Fatalf("ToARS = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRoundTrips(t *testing.T) {
	// ARS -> USD -> ARS within a cent.
	usd := ToUSD(12345, core.CurrencyARS, testRates, RateBlue)
	back := usd * testRates.Blue
	if math.Abs(back-12345) > 0.01*testRates.Blue {
		t.Fatalf("ARS round trip drifted: %v", back)
	}

	// USD-Blue -> ARS -> USD exactly recoverable on the same rate.
	ars := ToARS(100, core.CurrencyUSDBlue, testRates, RateBlue)
	if got := ToUSD(ars, core.CurrencyARS, testRates, RateBlue); got != 100 {
		t.Fatalf("USD-Blue round trip = %v, want 100", got)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1.5, "1.50"},
		{1.005, "1.01"},
		{1234, "1234.00"},
		{math.NaN(), "0.00"},
	}
	for _, tc := range cases {
		if got := FormatUSD(tc.in); got != tc.want {
			t.Fatalf("FormatUSD(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatARS(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1000, "1000"},
		{1000.50, "1000.5"},
		{1000.55, "1000.55"},
		{999.999, "1000"}, // rounds up to integral
		{0, "0"},
	}
	for _, tc := range cases {
		if got := FormatARS(tc.in); got != tc.want {
			t.Fatalf("FormatARS(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
