package grid

import "testing"

func TestParseRef(t *testing.T) {
	cases := []struct {
		in  string
		ref Ref
		ok  bool
	}{
		{"A1", Ref{'A', 1}, true},
		{"G99", Ref{'G', 99}, true},
		{"C12", Ref{'C', 12}, true},
		{"H1", Ref{}, false},  // column out of range
		{"A0", Ref{}, false},  // rows are 1-based
		{"A100", Ref{}, false},
		{"a1", Ref{}, false},
		{"1A", Ref{}, false},
		{"A", Ref{}, false},
		{"", Ref{}, false},
	}
	for i, tc := range cases {
		got, ok := ParseRef(tc.in)
		if ok != tc.ok {
			t.Fatalf("case %d (%q): ok=%v, want %v", i, tc.in, ok, tc.ok)
		}
		if ok && got != tc.ref {
			t.Fatalf("case %d (%q): got %v, want %v", i, tc.in, got, tc.ref)
		}
	}
}

func TestRefString(t *testing.T) {
	if s := (Ref{'B', 7}).String(); s != "B7" {
		t.Fatalf("got %q", s)
	}
	if s := (Ref{'G', 15}).String(); s != "G15" {
		t.Fatalf("got %q", s)
	}
}

func TestRangeRefs(t *testing.T) {
	got := (Range{Ref{'A', 2}, Ref{'B', 3}}).Refs()
	want := []Ref{{'A', 2}, {'B', 2}, {'A', 3}, {'B', 3}}
	if len(got) != len(want) {
		t.Fatalf("got %d refs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ref %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRangeRefsInverted(t *testing.T) {
	if refs := (Range{Ref{'A', 2}, Ref{'A', 1}}).Refs(); len(refs) != 0 {
		t.Fatalf("inverted range should be empty, got %v", refs)
	}
	if refs := (Range{Ref{'C', 5}, Ref{'A', 5}}).Refs(); len(refs) != 0 {
		t.Fatalf("inverted columns should be empty, got %v", refs)
	}
}
