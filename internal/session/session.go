// Package session owns the per-user working state of the expense grid: the
// loaded ledger, the cell store, the current rates and budget view, and the
// selection. All mutation goes through here so components stay free of
// shared globals.
package session

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"retromoney/internal/budget"
	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/grid"
	"retromoney/internal/log"
	"retromoney/internal/rates"
)

// ExpenseAPI is the ledger collaborator.
type ExpenseAPI interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id int64, u core.ExpenseUpdate) error
	Delete(ctx context.Context, id int64) error
}

// BudgetStore provides the stored allocation breakdown for a salary.
type BudgetStore interface {
	Allocations(ctx context.Context, salary float64) ([]core.Allocation, error)
}

// SalaryStore provides the monthly salary.
type SalaryStore interface {
	GetSalary(ctx context.Context) (float64, error)
}

// Session holds everything one grid view needs. Safe for concurrent use;
// concurrent edits are last-write-wins over the full snapshot.
type Session struct {
	mu sync.Mutex

	expenseAPI ExpenseAPI
	rateSource rates.Source
	budgetAPI  BudgetStore
	salaryAPI  SalaryStore
	logger     *log.Logger

	grid        *grid.Store
	expenses    []core.Expense
	rates       fx.Rates
	rateInfo    map[fx.RateType]core.ExchangeRate
	salary      float64
	allocations core.AllocationSet
	totals      budget.Totals
	selected    fx.RateType

	selection    grid.Ref
	hasSelection bool

	pending *core.Expense
}

func New(expenses ExpenseAPI, rateSource rates.Source, budgetAPI BudgetStore, salaryAPI SalaryStore, defaultRate fx.RateType, logger *log.Logger) *Session {
	s := &Session{
		expenseAPI: expenses,
		rateSource: rateSource,
		budgetAPI:  budgetAPI,
		salaryAPI:  salaryAPI,
		logger:     logger.WithComponent(log.ComponentSession),
		grid:       grid.NewStore(),
		rateInfo:   make(map[fx.RateType]core.ExchangeRate),
		selected:   defaultRate,
	}
	if !s.selected.Valid() {
		s.selected = fx.RateBlue
	}
	grid.WriteHeaders(s.grid)
	return s
}

// Refresh fetches expenses, both rates, salary and allocations concurrently
// and reprojects the grid. Each fetch that fails degrades to its previous or
// zero value so a backend outage renders an empty-but-working grid, never an
// error page.
func (s *Session) Refresh(ctx context.Context) {
	var (
		expenses    []core.Expense
		blue        core.ExchangeRate
		tarjeta     core.ExchangeRate
		salary      float64
		allocations []core.Allocation

		okExpenses, okBlue, okTarjeta, okSalary, okAllocations bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if expenses, err = s.expenseAPI.List(gctx); err != nil {
			s.logger.WarnContext(gctx, "expense refresh failed", log.FieldError, err.Error())
			return nil
		}
		okExpenses = true
		return nil
	})
	g.Go(func() error {
		var err error
		if blue, err = s.rateSource.Get(gctx, fx.RateBlue); err != nil {
			s.logger.WarnContext(gctx, "blue rate refresh failed", log.FieldError, err.Error())
			return nil
		}
		okBlue = true
		return nil
	})
	g.Go(func() error {
		var err error
		if tarjeta, err = s.rateSource.Get(gctx, fx.RateTarjeta); err != nil {
			s.logger.WarnContext(gctx, "tarjeta rate refresh failed", log.FieldError, err.Error())
			return nil
		}
		okTarjeta = true
		return nil
	})
	g.Go(func() error {
		var err error
		if salary, err = s.salaryAPI.GetSalary(gctx); err != nil {
			s.logger.WarnContext(gctx, "salary refresh failed", log.FieldError, err.Error())
			return nil
		}
		okSalary = true
		return nil
	})
	// The group context is canceled once Wait returns; the allocations
	// fetch below must keep using the caller's context.
	g.Wait()

	s.mu.Lock()
	if okExpenses {
		s.expenses = expenses
	}
	if okBlue {
		s.rates.Blue = blue.USDToARS
		s.rateInfo[fx.RateBlue] = blue
	}
	if okTarjeta {
		s.rates.Tarjeta = tarjeta.USDToARS
		s.rateInfo[fx.RateTarjeta] = tarjeta
	}
	if okSalary {
		s.salary = salary
	}
	currentSalary := s.salary
	s.mu.Unlock()

	// Allocations depend on the salary fetched above.
	if allocs, err := s.budgetAPI.Allocations(ctx, currentSalary); err != nil {
		s.logger.WarnContext(ctx, "allocation refresh failed", log.FieldError, err.Error())
	} else {
		allocations = allocs
		okAllocations = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if okAllocations {
		s.allocations = core.AllocationSet{Allocations: allocations}
	}
	s.reproject()
}

// reproject repopulates the grid and recomputes totals and the reconciled
// budget view. Caller holds the lock.
func (s *Session) reproject() {
	grid.Project(s.grid, s.expenses, s.rates, s.selected)
	s.totals = budget.ComputeTotals(s.expenses, s.rates, s.selected)
	s.allocations = budget.Reconcile(s.allocations, s.totals)
}

// SetRateType switches the process-wide selected rate and reprojects.
func (s *Session) SetRateType(t fx.RateType) error {
	if !t.Valid() {
		return core.ErrInvalidCurrency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = t
	s.reproject()
	return nil
}

func (s *Session) RateType() fx.RateType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Rate returns the last fetched quote for a rate type.
func (s *Session) Rate(t fx.RateType) (core.ExchangeRate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rateInfo[t]
	return r, ok
}

// Totals returns the current ledger aggregation.
func (s *Session) Totals() budget.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Allocations returns the reconciled budget view.
func (s *Session) Allocations() core.AllocationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocations
}

// Summary returns the salary line for the current state.
func (s *Session) Summary() budget.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return budget.Summarize(s.salary, s.totals, s.rates, s.selected)
}

// Expenses returns the loaded ledger in display order.
func (s *Session) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// Display returns what a cell renders.
func (s *Session) Display(ref grid.Ref) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Display(ref.String())
}

// Select marks a cell as the current selection.
func (s *Session) Select(ref grid.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = ref
	s.hasSelection = true
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasSelection = false
}

// Selection returns the selected cell, if any.
func (s *Session) Selection() (grid.Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.hasSelection
}

// FormulaBar returns what the formula bar shows for the selection: the
// formula text when one is set, otherwise the display value.
func (s *Session) FormulaBar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSelection {
		return ""
	}
	return s.grid.EditValue(s.selection.String())
}

// EditCell applies an edit to a cell. A leading "=" stores a formula. A
// literal on a projected expense row writes through to the backing expense:
// the date, description and amount columns are editable, amounts converting
// between currencies at the expense's own rate. Everything else is a plain
// grid write.
func (s *Session) EditCell(ctx context.Context, ref grid.Ref, raw string) error {
	if strings.HasPrefix(raw, "=") {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.grid.SetFormula(ref.String(), raw)
		s.grid.RecalculateAll()
		return nil
	}

	s.mu.Lock()
	expense, ok := s.expenseAt(ref.Row)
	currentRates, currentType := s.rates, s.selected
	s.mu.Unlock()

	if ok {
		update, changed, err := applyEdit(expense, ref.Col, raw, currentRates, currentType)
		if err != nil {
			return err
		}
		if changed {
			if err := s.expenseAPI.Update(ctx, expense.ID, update); err != nil {
				return err
			}
			s.reload(ctx)
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.SetCell(ref.String(), raw)
	s.grid.RecalculateAll()
	return nil
}

// expenseAt maps a data row to its projected expense. Caller holds the lock.
func (s *Session) expenseAt(row int) (core.Expense, bool) {
	idx := row - grid.FirstDataRow
	if idx < 0 || idx >= len(s.expenses) {
		return core.Expense{}, false
	}
	return s.expenses[idx], true
}

// applyEdit translates a cell edit into an expense update. Returns
// changed=false for columns that do not write back (currency, category,
// actions).
func applyEdit(e core.Expense, col byte, raw string, r fx.Rates, sel fx.RateType) (core.ExpenseUpdate, bool, error) {
	update := core.ExpenseUpdate{
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
	}

	switch col {
	case grid.ColDate:
		date, err := core.ParseDate(raw)
		if err != nil {
			return update, false, core.ErrInvalidDate
		}
		update.Date = date
	case grid.ColDescription:
		if strings.TrimSpace(raw) == "" {
			return update, false, core.ErrEmptyDescription
		}
		update.Description = strings.TrimSpace(raw)
	case grid.ColAmountUSD:
		usd, err := core.ParseAmount(raw)
		if err != nil {
			return update, false, err
		}
		if e.Currency.IsARS() {
			// The stored amount is ARS; convert the edited USD value back.
			update.Amount = core.Round2(usd * r.Selected(sel))
		} else {
			update.Amount = usd
		}
	case grid.ColAmountARS:
		ars, err := core.ParseAmount(raw)
		if err != nil {
			return update, false, err
		}
		if e.Currency.IsARS() {
			update.Amount = ars
		} else {
			rate := rateForCurrency(e.Currency, r, sel)
			if rate <= 0 {
				return update, false, core.ErrInvalidAmount
			}
			update.Amount = core.Round2(ars / rate)
		}
	default:
		return update, false, nil
	}

	return update, true, nil
}

func rateForCurrency(c core.Currency, r fx.Rates, sel fx.RateType) float64 {
	switch c {
	case core.CurrencyUSDBlue:
		return r.Blue
	case core.CurrencyUSDTarjeta:
		return r.Tarjeta
	default:
		return r.Selected(sel)
	}
}

// AddExpense validates and persists a new expense. When the expense would
// push its category past the overspend limit the write is deferred: the
// expense is parked pending ConfirmPending or CancelPending and deferred=true
// is returned.
func (s *Session) AddExpense(ctx context.Context, e core.Expense) (deferred bool, err error) {
	if e.Category == "" {
		e.Category = core.DefaultCategory
	}
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if err := e.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	amountUSD := fx.ToUSD(e.Amount, e.Currency, s.rates, s.selected)
	var blocked bool
	for _, a := range s.allocations.Allocations {
		if a.Name == e.Category && budget.ExceedsAllocation(a, amountUSD) {
			blocked = true
			break
		}
	}
	if blocked {
		s.pending = &e
	}
	s.mu.Unlock()

	if blocked {
		return true, nil
	}
	return false, s.commit(ctx, e)
}

// Pending returns the expense parked by the overspend guard, if any.
func (s *Session) Pending() (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return core.Expense{}, false
	}
	return *s.pending, true
}

// ConfirmPending commits the parked expense despite the overspend.
func (s *Session) ConfirmPending(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending == nil {
		return core.ErrNotFound
	}
	return s.commit(ctx, *pending)
}

// CancelPending drops the parked expense, leaving the ledger unchanged.
func (s *Session) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Session) commit(ctx context.Context, e core.Expense) error {
	if _, err := s.expenseAPI.Create(ctx, e); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// DeleteExpense removes an expense and reprojects, so no stale row remains.
func (s *Session) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenseAPI.Delete(ctx, id); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// reload refetches the ledger after a mutation and reprojects. Rates,
// salary and allocation percentages are left as loaded.
func (s *Session) reload(ctx context.Context) {
	expenses, err := s.expenseAPI.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "ledger reload failed", log.FieldError, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = expenses
	s.reproject()
}
