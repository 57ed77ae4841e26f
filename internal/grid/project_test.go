package grid

import (
	"testing"

	"retromoney/internal/core"
	"retromoney/internal/fx"
)

var testRates = fx.Rates{Blue: 1000, Tarjeta: 1600}

func TestProjectOrdersNewestFirst(t *testing.T) {
	s := NewStore()
	WriteHeaders(s)
	expenses := []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Description: "old", Amount: 100, Currency: core.CurrencyUSDBlue},
		{ID: 2, Date: core.NewDate(2024, 3, 1), Description: "new", Amount: 1000, Currency: core.CurrencyARS, Category: "Food"},
	}

	Project(s, expenses, testRates, fx.RateBlue)

	if got := s.Display("A1"); got != "Date" {
		t.Fatalf("header got %q", got)
	}
	if got := s.Display("B2"); got != "new" {
		t.Fatalf("row 2 should hold the newest expense, got %q", got)
	}
	if got := s.Display("B3"); got != "old" {
		t.Fatalf("row 3 got %q", got)
	}
	if expenses[0].ID != 2 {
		t.Fatal("slice should be sorted in place, newest first")
	}
}

func TestProjectColumns(t *testing.T) {
	s := NewStore()
	expenses := []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Description: "groceries", Amount: 1000, Currency: core.CurrencyARS, Category: "Food"},
	}

	Project(s, expenses, testRates, fx.RateBlue)

	cases := []struct {
		id   string
		want string
	}{
		{"A2", "2024-01-05"},
		{"B2", "groceries"},
		{"C2", "1.00"},  // 1000 ARS / 1000 blue
		{"D2", "1000"},
		{"E2", "ARS"},
		{"F2", "Food"},
		{"G2", DeleteMarker},
	}
	for i, tc := range cases {
		if got := s.Display(tc.id); got != tc.want {
			t.Fatalf("case %d (%s): got %q, want %q", i, tc.id, got, tc.want)
		}
	}
}

func TestProjectPinnedRateAndDefaultCategory(t *testing.T) {
	s := NewStore()
	expenses := []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Description: "card", Amount: 10, Currency: core.CurrencyUSDTarjeta},
	}

	// Selection is blue, but a tarjeta-qualified expense converts at tarjeta.
	Project(s, expenses, testRates, fx.RateBlue)

	if got := s.Display("D2"); got != "16000" {
		t.Fatalf("ARS column got %q", got)
	}
	if got := s.Display("F2"); got != core.DefaultCategory {
		t.Fatalf("empty category should default, got %q", got)
	}
}

func TestProjectClearsStaleRows(t *testing.T) {
	s := NewStore()
	two := []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Description: "a", Amount: 10, Currency: core.CurrencyUSDBlue},
		{ID: 2, Date: core.NewDate(2024, 1, 6), Description: "b", Amount: 20, Currency: core.CurrencyUSDBlue},
	}
	Project(s, two, testRates, fx.RateBlue)
	if got := s.Display("B3"); got != "a" {
		t.Fatalf("row 3 got %q", got)
	}

	Project(s, two[:1], testRates, fx.RateBlue)
	if got := s.Display("B3"); got != "" {
		t.Fatalf("stale row should be blank, got %q", got)
	}
}

func TestProjectRecalculatesFormulas(t *testing.T) {
	s := NewStore()
	s.SetFormula("C10", "=SUM(C2:C5)")
	expenses := []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Description: "a", Amount: 100, Currency: core.CurrencyUSDBlue},
		{ID: 2, Date: core.NewDate(2024, 1, 6), Description: "b", Amount: 50.5, Currency: core.CurrencyUSDBlue},
	}

	Project(s, expenses, testRates, fx.RateBlue)

	if got := s.Display("C10"); got != "150.5" {
		t.Fatalf("got %q", got)
	}
}
