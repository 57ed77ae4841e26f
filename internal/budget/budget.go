// Package budget aggregates the expense ledger into spending totals and
// reconciles them against the stored budget allocations.
package budget

import (
	"errors"
	"fmt"

	"retromoney/internal/core"
	"retromoney/internal/fx"
)

// OverspendFactor is the soft limit on a category: adding an expense that
// pushes actual spend past allocated*OverspendFactor requires confirmation.
const OverspendFactor = 1.2

// redistribution percentages must sum to 100 within this tolerance.
const percentTolerance = 0.1

var ErrBadRedistribution = errors.New("percentages must sum to 100")

// Totals is the ledger aggregated for display: overall USD and ARS totals
// plus per-category USD actuals. Every accumulation step rounds to 2
// decimals, so totals match what a user summing the displayed rows gets.
type Totals struct {
	USD        float64
	ARS        float64
	ByCategory map[string]float64
}

// ComputeTotals folds the expense list into Totals under the current rates.
// Expenses without a category count toward the default one.
func ComputeTotals(expenses []core.Expense, rates fx.Rates, sel fx.RateType) Totals {
	t := Totals{ByCategory: make(map[string]float64)}
	for _, e := range expenses {
		usd := fx.ToUSD(e.Amount, e.Currency, rates, sel)
		ars := fx.ToARS(e.Amount, e.Currency, rates, sel)
		t.USD = core.Round2(t.USD + usd)
		t.ARS = core.Round2(t.ARS + ars)

		category := e.Category
		if category == "" {
			category = core.DefaultCategory
		}
		t.ByCategory[category] = core.Round2(t.ByCategory[category] + usd)
	}
	return t
}

// Reconcile overrides the stored allocation actuals with the ones derived
// from the ledger. Stored actuals are never trusted: a category with no
// expenses resets to zero. Set totals are recomputed from the result.
func Reconcile(set core.AllocationSet, totals Totals) core.AllocationSet {
	out := core.AllocationSet{Allocations: make([]core.Allocation, len(set.Allocations))}
	for i, a := range set.Allocations {
		a.Actual = totals.ByCategory[a.Name]
		a.Remaining = core.Round2(a.Allocated - a.Actual)
		a.IsOverBudget = a.Remaining < 0
		out.Allocations[i] = a
		out.TotalAllocated = core.Round2(out.TotalAllocated + a.Allocated)
	}
	out.TotalActual = totals.USD
	out.TotalRemaining = core.Round2(out.TotalAllocated - out.TotalActual)
	return out
}

// ExceedsAllocation reports whether adding amountUSD to the category would
// push its actual spend past the overspend limit.
func ExceedsAllocation(a core.Allocation, amountUSD float64) bool {
	return a.Actual+amountUSD > a.Allocated*OverspendFactor
}

// ValidateRedistribution checks a set of percentage adjustments: every entry
// non-negative and the sum equal to 100 within tolerance.
func ValidateRedistribution(adjustments []core.Adjustment) error {
	if len(adjustments) == 0 {
		return ErrBadRedistribution
	}
	total := 0.0
	for _, adj := range adjustments {
		if adj.Percentage < 0 {
			return fmt.Errorf("%w: negative percentage for allocation %d", ErrBadRedistribution, adj.ID)
		}
		total += adj.Percentage
	}
	if total-100 > percentTolerance || 100-total > percentTolerance {
		return fmt.Errorf("%w: got %.1f", ErrBadRedistribution, total)
	}
	return nil
}

// Summary is the salary line rendered above the grid: income and what is
// left of it after the ledger, in both currencies.
type Summary struct {
	SalaryUSD    float64 `json:"salary_usd"`
	SalaryARS    float64 `json:"salary_ars"`
	TotalUSD     float64 `json:"total_usd"`
	TotalARS     float64 `json:"total_ars"`
	RemainingUSD float64 `json:"remaining_usd"`
	RemainingARS float64 `json:"remaining_ars"`
}

// Summarize derives the salary line from a USD salary and the current totals.
func Summarize(salaryUSD float64, t Totals, rates fx.Rates, sel fx.RateType) Summary {
	salaryARS := core.Round2(salaryUSD * rates.Selected(sel))
	return Summary{
		SalaryUSD:    core.Round2(salaryUSD),
		SalaryARS:    salaryARS,
		TotalUSD:     t.USD,
		TotalARS:     t.ARS,
		RemainingUSD: core.Round2(salaryUSD - t.USD),
		RemainingARS: core.Round2(salaryARS - t.ARS),
	}
}
