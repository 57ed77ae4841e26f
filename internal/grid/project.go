package grid

import (
	"sort"

	"retromoney/internal/core"
	"retromoney/internal/fx"
)

// DeleteMarker is written in the actions column of every expense row.
const DeleteMarker = "Delete"

var headerTitles = map[byte]string{
	ColDate:        "Date",
	ColDescription: "Description",
	ColAmountUSD:   "Amount (USD)",
	ColAmountARS:   "Amount (ARS)",
	ColCurrency:    "Currency",
	ColCategory:    "Category",
	ColActions:     "Actions",
}

// WriteHeaders populates the fixed header row.
func WriteHeaders(st *Store) {
	for i := 0; i < len(Columns); i++ {
		col := Columns[i]
		st.SetCell(Ref{Col: col, Row: HeaderRow}.String(), headerTitles[col])
	}
}

// Project maps the expense list onto grid rows. It clears every data row
// first (so a shrinking list leaves no stale rows), sorts expenses by date
// descending, stable on ties, and writes one row per expense starting at
// FirstDataRow with both currency columns resolved through the current rates.
//
// The slice is sorted in place: after projection, the expense at index i is
// the one displayed on row i+FirstDataRow, which cell-edit write-back relies
// on.
func Project(st *Store, expenses []core.Expense, rates fx.Rates, sel fx.RateType) {
	st.ClearDataRows()

	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date.Time)
	})

	for i, e := range expenses {
		row := i + FirstDataRow
		usd := fx.ToUSD(e.Amount, e.Currency, rates, sel)
		ars := fx.ToARS(e.Amount, e.Currency, rates, sel)
		category := e.Category
		if category == "" {
			category = core.DefaultCategory
		}

		st.SetCell(Ref{Col: ColDate, Row: row}.String(), e.Date.String())
		st.SetCell(Ref{Col: ColDescription, Row: row}.String(), e.Description)
		st.SetCell(Ref{Col: ColAmountUSD, Row: row}.String(), fx.FormatUSD(usd))
		st.SetCell(Ref{Col: ColAmountARS, Row: row}.String(), fx.FormatARS(ars))
		st.SetCell(Ref{Col: ColCurrency, Row: row}.String(), string(e.Currency))
		st.SetCell(Ref{Col: ColCategory, Row: row}.String(), category)
		st.SetCell(Ref{Col: ColActions, Row: row}.String(), DeleteMarker)
	}

	st.RecalculateAll()
}
