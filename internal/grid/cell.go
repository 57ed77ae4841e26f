// Package grid implements the spreadsheet-styled expense grid: a cell store,
// a restricted formula language, and the projection of the expense ledger
// onto grid rows.
package grid

import (
	"strconv"
)

// Columns are the fixed column letters of the default layout.
const Columns = "ABCDEFG"

// Column meanings in the default layout.
const (
	ColDate        = 'A'
	ColDescription = 'B'
	ColAmountUSD   = 'C'
	ColAmountARS   = 'D'
	ColCurrency    = 'E'
	ColCategory    = 'F'
	ColActions     = 'G'
)

const (
	// HeaderRow holds the fixed column titles.
	HeaderRow = 1
	// FirstDataRow is where projected expenses start.
	FirstDataRow = 2
	// DefaultRows is the visible grid height.
	DefaultRows = 15
)

// Ref identifies a cell by column letter and 1-based row number.
type Ref struct {
	Col byte
	Row int
}

// ParseRef parses a reference like "A1" or "C12". Valid columns are A–G and
// valid rows are 1–99, matching the reference pattern [A-G][1-9][0-9]?.
func ParseRef(s string) (Ref, bool) {
	if len(s) < 2 || len(s) > 3 {
		return Ref{}, false
	}
	col := s[0]
	if col < 'A' || col > 'G' {
		return Ref{}, false
	}
	if s[1] < '1' || s[1] > '9' {
		return Ref{}, false
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return Ref{}, false
	}
	return Ref{Col: col, Row: row}, true
}

func (r Ref) String() string {
	return string(r.Col) + strconv.Itoa(r.Row)
}

// Range is a rectangular span of cells. An inverted range (end before start
// in either dimension) is empty rather than an error.
type Range struct {
	Start, End Ref
}

// Refs enumerates the cells of the range row by row. Empty for inverted
// ranges.
func (rg Range) Refs() []Ref {
	var out []Ref
	for row := rg.Start.Row; row <= rg.End.Row; row++ {
		for col := rg.Start.Col; col <= rg.End.Col; col++ {
			out = append(out, Ref{Col: col, Row: row})
		}
	}
	return out
}
