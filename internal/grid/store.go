package grid

import (
	"strconv"
	"strings"
)

// Store is the in-memory cell map backing the grid. A cell holds either a
// literal display value or a formula; setting one clears the other. Cells are
// created lazily on first write and cleared, not destroyed, when the display
// is refreshed.
//
// Known limitation: RecalculateAll performs direct substitution with no
// dependency graph or cycle detection. A formula that references its own cell
// (directly or transitively) is out of scope and its result is unspecified.
type Store struct {
	values   map[string]string
	formulas map[string]string
	failed   map[string]bool
}

func NewStore() *Store {
	return &Store{
		values:   make(map[string]string),
		formulas: make(map[string]string),
		failed:   make(map[string]bool),
	}
}

// SetCell stores a literal value, clearing any formula on the cell.
func (s *Store) SetCell(id string, value string) {
	s.values[id] = value
	delete(s.formulas, id)
	delete(s.failed, id)
}

// SetFormula stores and immediately evaluates a formula ("=A1+5"). On
// failure the cell's value becomes empty and Display reports ErrorDisplay;
// the formula text itself is kept for re-editing.
func (s *Store) SetFormula(id string, formula string) {
	s.formulas[id] = formula
	s.evaluateInto(id, formula)
}

// Value returns the raw stored value ("" for unset or failed cells).
func (s *Store) Value(id string) string {
	return s.values[id]
}

// Display returns what the cell should render: the value, or ErrorDisplay
// for a formula that failed to evaluate.
func (s *Store) Display(id string) string {
	if s.failed[id] {
		return ErrorDisplay
	}
	return s.values[id]
}

// Formula returns the formula text stored on a cell, if any.
func (s *Store) Formula(id string) (string, bool) {
	f, ok := s.formulas[id]
	return f, ok
}

// EditValue is what an editor should prefill for a cell: the formula if one
// is set, otherwise the display value.
func (s *Store) EditValue(id string) string {
	if f, ok := s.formulas[id]; ok {
		return f
	}
	return s.Display(id)
}

// Numeric resolves a reference for formula evaluation. Currency decoration
// ("$12.00") is tolerated the way a lenient float parse would.
func (s *Store) Numeric(r Ref) (float64, bool) {
	raw, ok := s.values[r.String()]
	if !ok || raw == "" {
		return 0, false
	}
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "$")
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClearDataRows blanks every cell below the header row, so a repopulation
// never leaves stale rows behind. Formulas survive a clear.
func (s *Store) ClearDataRows() {
	for id := range s.values {
		if ref, ok := ParseRef(id); ok && ref.Row >= FirstDataRow {
			s.values[id] = ""
		}
	}
	for id := range s.failed {
		if ref, ok := ParseRef(id); ok && ref.Row >= FirstDataRow {
			delete(s.failed, id)
		}
	}
}

// RecalculateAll re-evaluates every stored formula against current values.
// Must run after any cell write, since formulas may reference the cell just
// modified.
func (s *Store) RecalculateAll() {
	for id, formula := range s.formulas {
		s.evaluateInto(id, formula)
	}
}

func (s *Store) evaluateInto(id, formula string) {
	v, err := Evaluate(formula, s.Numeric)
	if err != nil {
		s.values[id] = ""
		s.failed[id] = true
		return
	}
	s.values[id] = formatNumber(v)
	delete(s.failed, id)
}
