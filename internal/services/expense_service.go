// Package services orchestrates storage, messaging and caching behind the
// API handlers.
package services

import (
	"context"
	"fmt"

	"retromoney/internal/amqp"
	"retromoney/internal/cache"
	"retromoney/internal/core"
	"retromoney/internal/log"
)

const expensesCacheKey = "expenses"

// ExpenseStore is the persistence surface for the ledger.
type ExpenseStore interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id int64, u core.ExpenseUpdate) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher emits ledger-change events. Nil-able: the service degrades
// to storage-only when messaging is not configured.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// ExpenseService owns the ledger: SQLite writes first, then a best-effort
// event publish and cache invalidation.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	cache     *cache.LRUCache[[]core.Expense]
	logger    *log.Logger
}

func NewExpenseService(store ExpenseStore, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		cache:     cache.NewLRUCache[[]core.Expense](1, cache.TTLExpenses),
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// List returns the ledger, newest first, served from cache when warm.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	if expenses, ok := s.cache.Get(expensesCacheKey); ok {
		return expenses, nil
	}

	expenses, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	s.cache.Set(expensesCacheKey, expenses)
	return expenses, nil
}

// Create validates and saves an expense, then publishes a created event.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Category == "" {
		e.Category = core.DefaultCategory
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.cache.Delete(expensesCacheKey)
	s.publish(ctx, amqp.ActionCreated, created.ID)
	return created, nil
}

// Update validates and applies an expense mutation, then publishes an
// updated event.
func (s *ExpenseService) Update(ctx context.Context, id int64, u core.ExpenseUpdate) error {
	if u.Category == "" {
		u.Category = core.DefaultCategory
	}
	if err := u.Validate(); err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, u); err != nil {
		return err
	}

	s.cache.Delete(expensesCacheKey)
	s.publish(ctx, amqp.ActionUpdated, id)
	return nil
}

// Delete removes an expense and publishes a deleted event.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(expensesCacheKey)
	s.publish(ctx, amqp.ActionDeleted, id)
	return nil
}

// CleanExpired drops expired cache entries, satisfying cache.Cleaner.
func (s *ExpenseService) CleanExpired() int {
	return s.cache.CleanExpired()
}

// publish emits a ledger event. Failures never fail the request: the write
// already committed.
func (s *ExpenseService) publish(ctx context.Context, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(action, id)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish ledger event",
			log.FieldOperation, action,
			log.FieldExpenseID, id,
			log.FieldError, err.Error(),
		)
	}
}
