package grid

import "testing"

func TestStoreSetAndDisplay(t *testing.T) {
	s := NewStore()
	s.SetCell("A2", "2024-01-05")
	if got := s.Display("A2"); got != "2024-01-05" {
		t.Fatalf("got %q", got)
	}
	if got := s.Display("B2"); got != "" {
		t.Fatalf("unset cell should display empty, got %q", got)
	}
}

func TestStoreFormula(t *testing.T) {
	s := NewStore()
	s.SetCell("C2", "100")
	s.SetCell("C3", "50.5")
	s.SetFormula("C10", "=SUM(C2:C3)")

	if got := s.Display("C10"); got != "150.5" {
		t.Fatalf("got %q", got)
	}
	if got := s.EditValue("C10"); got != "=SUM(C2:C3)" {
		t.Fatalf("edit value should be the formula, got %q", got)
	}

	// Formula results track later cell writes once recalculated.
	s.SetCell("C3", "100")
	s.RecalculateAll()
	if got := s.Display("C10"); got != "200" {
		t.Fatalf("after recalc got %q", got)
	}
}

func TestStoreFormulaError(t *testing.T) {
	s := NewStore()
	s.SetFormula("C10", "=C2++")
	if got := s.Display("C10"); got != ErrorDisplay {
		t.Fatalf("got %q, want %q", got, ErrorDisplay)
	}
	if got := s.Value("C10"); got != "" {
		t.Fatalf("failed formula value should be empty, got %q", got)
	}
	if got := s.EditValue("C10"); got != "=C2++" {
		t.Fatalf("formula text should survive failure, got %q", got)
	}

	// Overwriting with a literal clears the error state.
	s.SetCell("C10", "5")
	if got := s.Display("C10"); got != "5" {
		t.Fatalf("got %q", got)
	}
	if _, ok := s.Formula("C10"); ok {
		t.Fatal("literal write should clear the formula")
	}
}

func TestStoreNumeric(t *testing.T) {
	s := NewStore()
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{"$1,234.50", 1234.50, true},
		{" $12.00 ", 12, true},
		{"", 0, false},
		{"USD", 0, false},
	}
	for i, tc := range cases {
		s.SetCell("C2", tc.raw)
		got, ok := s.Numeric(Ref{'C', 2})
		if ok != tc.ok || got != tc.want {
			t.Fatalf("case %d (%q): got %v,%v want %v,%v", i, tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStoreClearDataRows(t *testing.T) {
	s := NewStore()
	s.SetCell("A1", "Date")
	s.SetCell("A2", "2024-01-05")
	s.SetCell("C2", "100")
	s.SetFormula("C10", "=SUM(C2:C5)")
	s.SetFormula("D10", "=C2++") // failed

	s.ClearDataRows()

	if got := s.Display("A1"); got != "Date" {
		t.Fatalf("header should survive clear, got %q", got)
	}
	if got := s.Display("A2"); got != "" {
		t.Fatalf("data row should be blank, got %q", got)
	}
	if _, ok := s.Formula("C10"); !ok {
		t.Fatal("formulas should survive clear")
	}
	if got := s.Display("D10"); got == ErrorDisplay {
		t.Fatal("error state should reset on clear")
	}

	s.RecalculateAll()
	if got := s.Display("C10"); got != "0" {
		t.Fatalf("formula over cleared cells should be 0, got %q", got)
	}
}
