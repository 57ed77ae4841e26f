package grid

import (
	"math"
	"testing"
)

func lookupFrom(vals map[string]float64) Lookup {
	return func(r Ref) (float64, bool) {
		v, ok := vals[r.String()]
		return v, ok
	}
}

func TestEvaluate(t *testing.T) {
	vals := map[string]float64{
		"A1": 10, "C2": 100, "C3": 50.5, "C4": 25,
	}
	cases := []struct {
		formula string
		want    float64
	}{
		{"=A1+5", 15},
		{"A1+5", 15}, // leading = optional
		{"=A1*2-5", 15},
		{"=(A1+2)*3", 36},
		{"=-A1+30", 20},
		{"=2+3*4", 14},
		{"=1.5*2", 3},
		{"= A1 + 5 ", 15},
		{"=A1/4", 2.5},
		{"=SUM(C2:C4)", 175.5},
		{"=SUM(C2:C3)*2", 301},
		{"=SUM(C2:C4)+A1", 185.5},
		{"=A99+5", 5},       // missing cell contributes 0
		{"=SUM(A2:A1)", 0},  // inverted range sums to 0
		{"=SUM(D2:D4)", 0},  // empty cells
	}
	for i, tc := range cases {
		got, err := Evaluate(tc.formula, lookupFrom(vals))
		if err != nil {
			t.Fatalf("case %d (%q): %v", i, tc.formula, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("case %d (%q): got %v, want %v", i, tc.formula, got, tc.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	vals := map[string]float64{"A1": 10}
	cases := []string{
		"=",
		"=A1+",
		"=A1++2",
		"=(A1+2",
		"=A1)2",
		"=foo",
		"=SUM(A1:A3", // unclosed SUM never matches the range pattern
		"=1..2",
	}
	for i, formula := range cases {
		if _, err := Evaluate(formula, lookupFrom(vals)); err == nil {
			t.Fatalf("case %d (%q): expected error", i, formula)
		}
	}
}
