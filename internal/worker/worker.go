// Package worker runs the background side of the ledger: reacting to
// published ledger events and keeping exchange-rate quotes fresh.
package worker

import (
	"context"
	"fmt"
	"time"

	"retromoney/internal/amqp"
	"retromoney/internal/budget"
	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
	"retromoney/internal/rates"
)

const handleTimeout = 30 * time.Second

// Store is the storage surface the ledger worker reads from.
type Store interface {
	List(ctx context.Context) ([]core.Expense, error)
	GetSalary(ctx context.Context) (float64, error)
	Allocations(ctx context.Context, salary float64) ([]core.Allocation, error)
}

// LedgerWorker recomputes the budget reconciliation whenever an expense
// changes, surfacing over-budget categories in the logs.
type LedgerWorker struct {
	store    Store
	rates    rates.Source
	selected fx.RateType
	logger   *log.Logger
}

func NewLedgerWorker(store Store, rateSource rates.Source, selected fx.RateType, logger *log.Logger) *LedgerWorker {
	return &LedgerWorker{
		store:    store,
		rates:    rateSource,
		selected: selected,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one ledger event. A returned error requeues the message.
func (w *LedgerWorker) Handle(event *amqp.LedgerEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	w.logger.InfoContext(ctx, "Processing ledger event",
		"action", event.Action,
		log.FieldExpenseID, event.ExpenseID)

	set, err := w.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile after %s event: %w", event.Action, err)
	}

	for _, a := range set.Allocations {
		if a.IsOverBudget {
			w.logger.WarnContext(ctx, "Category over budget",
				log.FieldCategory, a.Name,
				"allocated", a.Allocated,
				"actual", a.Actual,
				"remaining", a.Remaining)
		}
	}

	w.logger.InfoContext(ctx, "Reconciliation complete",
		"total_actual", set.TotalActual,
		"total_remaining", set.TotalRemaining)

	return nil
}

// Reconcile loads the ledger and allocation percentages and produces the
// current budget breakdown. Rate fetch failures degrade to zero rates so a
// quote outage never blocks event processing.
func (w *LedgerWorker) Reconcile(ctx context.Context) (core.AllocationSet, error) {
	salary, err := w.store.GetSalary(ctx)
	if err != nil {
		return core.AllocationSet{}, fmt.Errorf("get salary: %w", err)
	}
	allocations, err := w.store.Allocations(ctx, salary)
	if err != nil {
		return core.AllocationSet{}, fmt.Errorf("load allocations: %w", err)
	}
	expenses, err := w.store.List(ctx)
	if err != nil {
		return core.AllocationSet{}, fmt.Errorf("load expenses: %w", err)
	}

	var r fx.Rates
	if q, err := w.rates.Get(ctx, fx.RateBlue); err == nil {
		r.Blue = q.USDToARS
	} else {
		w.logger.WarnContext(ctx, "Blue rate unavailable", log.FieldError, err.Error())
	}
	if q, err := w.rates.Get(ctx, fx.RateTarjeta); err == nil {
		r.Tarjeta = q.USDToARS
	} else {
		w.logger.WarnContext(ctx, "Tarjeta rate unavailable", log.FieldError, err.Error())
	}

	totals := budget.ComputeTotals(expenses, r, w.selected)
	return budget.Reconcile(core.AllocationSet{Allocations: allocations}, totals), nil
}

// RefreshableSource is a rate source whose cached quotes can be dropped.
type RefreshableSource interface {
	rates.Source
	Invalidate(t fx.RateType)
}

// RateRefresher drops and re-fetches both quotes on a cron schedule.
type RateRefresher struct {
	source RefreshableSource
	logger *log.Logger
}

func NewRateRefresher(source RefreshableSource, logger *log.Logger) *RateRefresher {
	return &RateRefresher{
		source: source,
		logger: logger.WithComponent(log.ComponentRates),
	}
}

// Refresh is shaped for cron.AddFunc.
func (r *RateRefresher) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, t := range []fx.RateType{fx.RateBlue, fx.RateTarjeta} {
		r.source.Invalidate(t)
		quote, err := r.source.Get(ctx, t)
		if err != nil {
			r.logger.WarnContext(ctx, "Rate refresh failed",
				log.FieldRateType, string(t), log.FieldError, err.Error())
			continue
		}
		r.logger.InfoContext(ctx, "Rate refreshed",
			log.FieldRateType, string(t),
			log.FieldRate, quote.USDToARS,
			log.FieldOperation, log.OpRefresh)
	}
}
